package framegraph

import (
	"fmt"
	"strings"
	"sync"

	vk "github.com/goki/vulkan"

	"github.com/intrinsicD/IntrinsicEngine-sub004/device"
)

// fakeCommandBuffer records a readable trace of everything recorded
// into it. ExecuteCommands splices the secondary's trace into this one
// so a primary's ops read as the flat stream a GPU would consume.
type fakeCommandBuffer struct {
	primary bool
	begun   bool
	ended   bool
	inherit *device.RenderInheritance
	ops     []string
}

func (c *fakeCommandBuffer) Begin(inherit *device.RenderInheritance) error {
	c.begun = true
	c.inherit = inherit
	return nil
}

func (c *fakeCommandBuffer) End() error {
	c.ended = true
	return nil
}

func (c *fakeCommandBuffer) ImageBarrier(b device.ImageBarrier) {
	c.ops = append(c.ops, fmt.Sprintf("image-barrier %p %s->%s",
		b.Image, layoutName(b.OldLayout), layoutName(b.NewLayout)))
}

func (c *fakeCommandBuffer) BufferBarrier(b device.BufferBarrier) {
	c.ops = append(c.ops, fmt.Sprintf("buffer-barrier %p", b.Buffer))
}

func (c *fakeCommandBuffer) BeginRendering(info device.RenderingInfo) {
	layout := "none"
	if len(info.Color) > 0 {
		layout = layoutName(info.Color[0].Layout)
	} else if info.Depth != nil {
		layout = layoutName(info.Depth.Layout)
	}
	c.ops = append(c.ops, fmt.Sprintf("begin-rendering %dx%d %s",
		info.Width, info.Height, layout))
}

func (c *fakeCommandBuffer) EndRendering() {
	c.ops = append(c.ops, "end-rendering")
}

func (c *fakeCommandBuffer) ExecuteCommands(secondary device.CommandBuffer) {
	sec := secondary.(*fakeCommandBuffer)
	c.ops = append(c.ops, sec.ops...)
}

// mark lets pass bodies leave an identifiable op in the trace.
func (c *fakeCommandBuffer) mark(s string) {
	c.ops = append(c.ops, s)
}

// indexOf returns the position of the first op containing sub, or -1.
func (c *fakeCommandBuffer) indexOf(sub string) int {
	for i, op := range c.ops {
		if strings.Contains(op, sub) {
			return i
		}
	}
	return -1
}

// fakeDevice implements device.Device in memory. Physical objects are
// plain structs; identity comparisons use their pointers.
type fakeDevice struct {
	mu    sync.Mutex
	epoch uint64

	createdImages  int
	createdBuffers int
	allocatedPages int

	destroyedImages  int
	destroyedBuffers int
	freedPages       int

	failCreateImage  error
	failCreateBuffer error
	failNewCommand   error

	memoryTypeBits uint32
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{epoch: 1, memoryTypeBits: 0x7}
}

func (d *fakeDevice) CreateImage(desc device.TextureDesc) (*device.Image, error) {
	if d.failCreateImage != nil {
		return nil, d.failCreateImage
	}
	d.createdImages++
	return &device.Image{
		Width:  desc.Width,
		Height: desc.Height,
		Format: desc.Format,
		Usage:  desc.Usage,
		Aspect: desc.Aspect,
	}, nil
}

func (d *fakeDevice) CreateBuffer(desc device.BufferDesc) (*device.Buffer, error) {
	if d.failCreateBuffer != nil {
		return nil, d.failCreateBuffer
	}
	d.createdBuffers++
	return &device.Buffer{Size: desc.Size, Usage: desc.Usage}, nil
}

func (d *fakeDevice) ImageMemoryRequirements(img *device.Image) device.MemoryRequirements {
	return device.MemoryRequirements{
		Size:      vk.DeviceSize(img.Width) * vk.DeviceSize(img.Height) * 4,
		Alignment: 256,
		TypeBits:  d.memoryTypeBits,
	}
}

func (d *fakeDevice) AllocateMemory(size vk.DeviceSize, typeBits uint32) (*device.Memory, error) {
	d.allocatedPages++
	return &device.Memory{Size: size, TypeBits: typeBits}, nil
}

func (d *fakeDevice) BindImageMemory(img *device.Image, mem *device.Memory, offset vk.DeviceSize) error {
	img.Memory = mem.Handle
	img.MemoryOffset = offset
	return nil
}

func (d *fakeDevice) DestroyImage(img *device.Image)   { d.destroyedImages++ }
func (d *fakeDevice) DestroyBuffer(buf *device.Buffer) { d.destroyedBuffers++ }
func (d *fakeDevice) FreeMemory(mem *device.Memory)    { d.freedPages++ }

func (d *fakeDevice) NewCommandBuffer(primary bool) (device.CommandBuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failNewCommand != nil {
		return nil, d.failNewCommand
	}
	return &fakeCommandBuffer{primary: primary}, nil
}

func (d *fakeDevice) FrameEpoch() uint64 { return d.epoch }

// colorTarget is a convenient transient color attachment descriptor.
func colorTarget(w, h uint32) TextureDesc {
	return TextureDesc{
		Width:  w,
		Height: h,
		Format: vk.FormatR8g8b8a8Unorm,
		Usage:  vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit) | vk.ImageUsageFlags(vk.ImageUsageSampledBit),
		Aspect: vk.ImageAspectFlags(vk.ImageAspectColorBit),
	}
}

// markPass registers a pass that reads nothing and leaves a trace mark.
func markPass(g *Graph, name string, setup SetupFunc) PassIndex {
	return g.AddPass(name, setup, func(r *Registry, cb device.CommandBuffer) {
		cb.(*fakeCommandBuffer).mark("body " + name)
	})
}

// Package device defines the collaborator interfaces the frame graph
// records against.
//
// The frame graph core never talks to the graphics API directly. It
// resolves transient resources, synthesizes barriers and replays pass
// bodies exclusively through the Device and CommandBuffer interfaces
// below. The vocabulary (formats, usage flags, pipeline stages, access
// masks, image layouts) is Vulkan's, via github.com/goki/vulkan; the
// concrete backend behind Device owns the actual API calls.
//
// # Implementation Contract
//
// A Device implementation must:
//  1. Return images/buffers whose shape fields mirror the descriptor
//     they were created from.
//  2. Leave CreateImage results unbound; the caller queries
//     ImageMemoryRequirements, obtains a Memory page and calls
//     BindImageMemory exactly once per image.
//  3. Advance FrameEpoch monotonically, once per frame, after the
//     frame fence for that epoch has been waited on.
//
// CommandBuffer implementations record only; submission order is the
// caller's responsibility.
package device

import (
	vk "github.com/goki/vulkan"
)

// TextureDesc describes a 2D image resource.
type TextureDesc struct {
	Width  uint32
	Height uint32
	Format vk.Format
	Usage  vk.ImageUsageFlags
	Aspect vk.ImageAspectFlags
}

// BufferDesc describes a buffer resource.
type BufferDesc struct {
	Size  vk.DeviceSize
	Usage vk.BufferUsageFlags
}

// Image is a physical image with its default view. Memory is the page
// the image is bound to; zero for externally-owned images whose
// binding the caller manages.
type Image struct {
	Handle       vk.Image
	View         vk.ImageView
	Memory       vk.DeviceMemory
	MemoryOffset vk.DeviceSize

	Width  uint32
	Height uint32
	Format vk.Format
	Usage  vk.ImageUsageFlags
	Aspect vk.ImageAspectFlags
}

// Buffer is a physical buffer. Unlike images, buffers are created
// fully bound.
type Buffer struct {
	Handle vk.Buffer
	Size   vk.DeviceSize
	Usage  vk.BufferUsageFlags
}

// Memory is an allocated device-memory page.
type Memory struct {
	Handle   vk.DeviceMemory
	Size     vk.DeviceSize
	TypeBits uint32
}

// MemoryRequirements reports what an image needs from a memory page.
type MemoryRequirements struct {
	Size      vk.DeviceSize
	Alignment vk.DeviceSize
	TypeBits  uint32
}

// ClearValue is the clear for an attachment with a Clear load op.
// Plain value struct; backends translate to the API union themselves.
type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

// ImageBarrier is one image layout/access transition.
type ImageBarrier struct {
	Image     *Image
	SrcStage  vk.PipelineStageFlags
	DstStage  vk.PipelineStageFlags
	SrcAccess vk.AccessFlags
	DstAccess vk.AccessFlags
	OldLayout vk.ImageLayout
	NewLayout vk.ImageLayout
}

// BufferBarrier is one buffer access transition.
type BufferBarrier struct {
	Buffer    *Buffer
	SrcStage  vk.PipelineStageFlags
	DstStage  vk.PipelineStageFlags
	SrcAccess vk.AccessFlags
	DstAccess vk.AccessFlags
}

// RenderingAttachment binds one image as a color or depth target.
// Layout is the layout the image is in when rendering begins; the
// recorder must not transition it.
type RenderingAttachment struct {
	Image   *Image
	Layout  vk.ImageLayout
	LoadOp  vk.AttachmentLoadOp
	StoreOp vk.AttachmentStoreOp
	Clear   ClearValue
}

// RenderingInfo opens a dynamic render pass.
type RenderingInfo struct {
	Width  uint32
	Height uint32
	Color  []RenderingAttachment
	Depth  *RenderingAttachment
}

// RenderInheritance carries the attachment formats a secondary command
// buffer records against when its contents execute inside a render
// pass opened by the primary.
type RenderInheritance struct {
	ColorFormats []vk.Format
	DepthFormat  vk.Format
}

// CommandBuffer records an abstract command stream.
//
// Begin takes a nil inheritance for primary streams and for secondary
// streams that execute outside a render pass.
type CommandBuffer interface {
	Begin(inherit *RenderInheritance) error
	End() error

	ImageBarrier(b ImageBarrier)
	BufferBarrier(b BufferBarrier)

	BeginRendering(info RenderingInfo)
	EndRendering()

	// ExecuteCommands splices a finished secondary stream into this
	// (primary) stream.
	ExecuteCommands(secondary CommandBuffer)
}

// Device creates physical resources and command streams.
//
// All methods are called from a single goroutine except
// NewCommandBuffer, which the executor may call from recording tasks;
// implementations must make it safe for concurrent use.
type Device interface {
	CreateImage(desc TextureDesc) (*Image, error)
	CreateBuffer(desc BufferDesc) (*Buffer, error)

	ImageMemoryRequirements(img *Image) MemoryRequirements
	AllocateMemory(size vk.DeviceSize, typeBits uint32) (*Memory, error)
	BindImageMemory(img *Image, mem *Memory, offset vk.DeviceSize) error

	DestroyImage(img *Image)
	DestroyBuffer(buf *Buffer)
	FreeMemory(mem *Memory)

	NewCommandBuffer(primary bool) (CommandBuffer, error)

	// FrameEpoch returns the current frame number. Used by the
	// transient pool to detect allocations last claimed in an
	// earlier frame.
	FrameEpoch() uint64
}

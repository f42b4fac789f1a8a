package framegraph

import (
	vk "github.com/goki/vulkan"

	"github.com/intrinsicD/IntrinsicEngine-sub004/device"
)

// TextureDesc describes a transient 2D image. Alias of the device
// descriptor so pool and device share one shape vocabulary.
type TextureDesc = device.TextureDesc

// BufferDesc describes a transient buffer.
type BufferDesc = device.BufferDesc

// SyncState is a resource's synchronization state: the stages that last
// touched it, the access mask they used and, for images, the current
// layout. Callers supply one per imported resource; the compiler
// restores it at the start of every Compile so the graph never owns an
// imported resource's steady state across frames.
type SyncState struct {
	Stage  vk.PipelineStageFlags
	Access vk.AccessFlags
	Layout vk.ImageLayout
}

// Lifetime is an inclusive interval of pass indices.
type Lifetime struct {
	First int
	Last  int
}

// Overlaps reports whether two lifetimes share at least one pass.
func (l Lifetime) Overlaps(other Lifetime) bool {
	return l.First <= other.Last && other.First <= l.Last
}

type resourceKind uint8

const (
	resourceTransientImage resourceKind = iota
	resourceTransientBuffer
	resourceImportedImage
	resourceImportedBuffer
)

var resourceKindNames = [...]string{
	resourceTransientImage:  "transient-image",
	resourceTransientBuffer: "transient-buffer",
	resourceImportedImage:   "imported-image",
	resourceImportedBuffer:  "imported-buffer",
}

func (k resourceKind) String() string {
	if int(k) < len(resourceKindNames) {
		return resourceKindNames[k]
	}
	return "unknown"
}

// resourceRecord is one logical resource of the current frame.
type resourceRecord struct {
	name string
	kind resourceKind

	// Shape; texture for image kinds, buffer for buffer kinds.
	texture TextureDesc
	buffer  BufferDesc

	// state is mutated by the barrier compiler as it walks the frame.
	state SyncState

	// initial is the state restored at the start of every Compile.
	// Imported resources carry the caller-supplied state; transients
	// start undefined.
	initial SyncState

	lifetime Lifetime

	// Resolved physical backing. Imported records carry theirs from
	// declaration; transients are filled by the pool during Compile.
	image  *device.Image
	buf    *device.Buffer
}

func (r *resourceRecord) isImage() bool {
	return r.kind == resourceTransientImage || r.kind == resourceImportedImage
}

func (r *resourceRecord) isImported() bool {
	return r.kind == resourceImportedImage || r.kind == resourceImportedBuffer
}

// touch widens the lifetime to include the given pass.
func (r *resourceRecord) touch(pass int) {
	if pass < r.lifetime.First {
		r.lifetime.First = pass
	}
	if pass > r.lifetime.Last {
		r.lifetime.Last = pass
	}
}

// transientInitialState is where every transient resource starts a
// frame: nothing has touched it and, for images, the contents are
// undefined (the first barrier may discard).
func transientInitialState() SyncState {
	return SyncState{
		Stage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		Access: 0,
		Layout: vk.ImageLayoutUndefined,
	}
}

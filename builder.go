package framegraph

import (
	vk "github.com/goki/vulkan"

	"github.com/intrinsicD/IntrinsicEngine-sub004/device"
)

// Builder is the declaration-time API handed to each pass's setup
// callback. Every call records a declaration on the owning pass and
// widens the touched resource's lifetime to include that pass.
//
// A Builder is only valid for the duration of the setup callback it
// was passed to; do not retain it.
type Builder struct {
	graph *Graph
	pass  int
}

// valid reports whether h names a resource declared this frame.
func (b *Builder) valid(h ResourceHandle) bool {
	return h.IsValid() && int(h) < len(b.graph.resources)
}

func (b *Builder) stale(op string, h ResourceHandle) ResourceHandle {
	Logger().Warn("framegraph: stale or undeclared resource handle",
		"op", op,
		"pass", b.graph.passes[b.pass].name,
		"handle", uint32(h))
	return InvalidResource
}

// Read declares that the pass reads the resource at the given stages
// with the given access mask. Returns the handle for chaining, or
// InvalidResource (and records nothing) if the handle is stale.
func (b *Builder) Read(h ResourceHandle, stage vk.PipelineStageFlags, access vk.AccessFlags) ResourceHandle {
	if !b.valid(h) {
		return b.stale("Read", h)
	}
	b.declare(h, stage, access)
	return h
}

// Write declares that the pass writes the resource. The bookkeeping is
// identical to Read; the compiler decides write-vs-read semantics from
// the access bits alone.
func (b *Builder) Write(h ResourceHandle, stage vk.PipelineStageFlags, access vk.AccessFlags) ResourceHandle {
	if !b.valid(h) {
		return b.stale("Write", h)
	}
	b.declare(h, stage, access)
	return h
}

func (b *Builder) declare(h ResourceHandle, stage vk.PipelineStageFlags, access vk.AccessFlags) {
	p := &b.graph.passes[b.pass]
	p.accesses = append(p.accesses, AccessDeclaration{Resource: h, Stage: stage, Access: access})
	b.graph.resources[h].touch(b.pass)
}

// WriteColor binds the resource as a color attachment of the pass. The
// executor opens a render pass around the pass body for every pass with
// at least one attachment declaration. Attachments count as writes at
// the color-attachment-output stage for hazard and barrier purposes.
func (b *Builder) WriteColor(h ResourceHandle, att AttachmentDesc) ResourceHandle {
	if !b.valid(h) {
		return b.stale("WriteColor", h)
	}
	b.attach(h, att, false)
	return h
}

// WriteDepth binds the resource as the depth-stencil attachment.
func (b *Builder) WriteDepth(h ResourceHandle, att AttachmentDesc) ResourceHandle {
	if !b.valid(h) {
		return b.stale("WriteDepth", h)
	}
	b.attach(h, att, true)
	return h
}

func (b *Builder) attach(h ResourceHandle, att AttachmentDesc, depth bool) {
	p := &b.graph.passes[b.pass]
	p.attachments = append(p.attachments, AttachmentDeclaration{
		Resource: h,
		LoadOp:   att.LoadOp,
		StoreOp:  att.StoreOp,
		Clear:    att.Clear,
		IsDepth:  depth,
	})
	b.graph.resources[h].touch(b.pass)
}

// CreateTexture declares a transient image. Idempotent by name within
// a frame: a second call with the same name returns the existing handle
// and ignores the new descriptor (first writer wins on shape).
func (b *Builder) CreateTexture(name string, desc TextureDesc) ResourceHandle {
	if h, ok := b.graph.byName[name]; ok {
		b.graph.resources[h].touch(b.pass)
		return h
	}
	return b.graph.addResource(resourceRecord{
		name:     name,
		kind:     resourceTransientImage,
		texture:  desc,
		initial:  transientInitialState(),
		state:    transientInitialState(),
		lifetime: Lifetime{First: b.pass, Last: b.pass},
	})
}

// CreateBuffer declares a transient buffer. Idempotent by name, like
// CreateTexture.
func (b *Builder) CreateBuffer(name string, desc BufferDesc) ResourceHandle {
	if h, ok := b.graph.byName[name]; ok {
		b.graph.resources[h].touch(b.pass)
		return h
	}
	return b.graph.addResource(resourceRecord{
		name:     name,
		kind:     resourceTransientBuffer,
		buffer:   desc,
		initial:  transientInitialState(),
		state:    transientInitialState(),
		lifetime: Lifetime{First: b.pass, Last: b.pass},
	})
}

// ImportTexture registers an externally-owned image. Its lifetime
// start is pinned to pass 0 so it synchronizes against work recorded
// outside the graph, and initial is re-applied on every Compile.
func (b *Builder) ImportTexture(name string, img *device.Image, initial SyncState) ResourceHandle {
	if h, ok := b.graph.byName[name]; ok {
		b.graph.resources[h].touch(b.pass)
		return h
	}
	if img == nil {
		Logger().Warn("framegraph: ImportTexture with nil image",
			"pass", b.graph.passes[b.pass].name, "name", name)
		return InvalidResource
	}
	return b.graph.addResource(resourceRecord{
		name:     name,
		kind:     resourceImportedImage,
		texture:  TextureDesc{Width: img.Width, Height: img.Height, Format: img.Format, Usage: img.Usage, Aspect: img.Aspect},
		initial:  initial,
		state:    initial,
		lifetime: Lifetime{First: 0, Last: b.pass},
		image:    img,
	})
}

// ImportBuffer registers an externally-owned buffer, lifetime pinned to
// pass 0 like ImportTexture.
func (b *Builder) ImportBuffer(name string, buf *device.Buffer, initial SyncState) ResourceHandle {
	if h, ok := b.graph.byName[name]; ok {
		b.graph.resources[h].touch(b.pass)
		return h
	}
	if buf == nil {
		Logger().Warn("framegraph: ImportBuffer with nil buffer",
			"pass", b.graph.passes[b.pass].name, "name", name)
		return InvalidResource
	}
	return b.graph.addResource(resourceRecord{
		name:     name,
		kind:     resourceImportedBuffer,
		buffer:   BufferDesc{Size: buf.Size, Usage: buf.Usage},
		initial:  initial,
		state:    initial,
		lifetime: Lifetime{First: 0, Last: b.pass},
		buf:      buf,
	})
}

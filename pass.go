package framegraph

import (
	vk "github.com/goki/vulkan"

	"github.com/intrinsicD/IntrinsicEngine-sub004/device"
)

// AccessDeclaration records one resource access of a pass: which
// resource, at which pipeline stages, with which access mask. Whether
// the access counts as a write is decided by the compiler from the
// access bits, not by which Builder method recorded it.
type AccessDeclaration struct {
	Resource ResourceHandle
	Stage    vk.PipelineStageFlags
	Access   vk.AccessFlags
}

// AttachmentDeclaration records one render-target binding of a pass.
// Attachments are always writes for hazard purposes.
type AttachmentDeclaration struct {
	Resource ResourceHandle
	LoadOp   vk.AttachmentLoadOp
	StoreOp  vk.AttachmentStoreOp
	Clear    device.ClearValue
	IsDepth  bool
}

// AttachmentDesc is the Builder-facing part of an attachment
// declaration; the resource and depth/color distinction come from the
// WriteColor/WriteDepth call itself. The zero value loads and stores.
type AttachmentDesc struct {
	LoadOp  vk.AttachmentLoadOp
	StoreOp vk.AttachmentStoreOp
	Clear   device.ClearValue
}

// SetupFunc declares a pass's resource usage against the Builder.
type SetupFunc func(*Builder)

// ExecuteFunc records a pass's commands. It runs on a scheduler worker
// during Execute and must only read resolved handles from the Registry;
// it must not touch the Graph.
type ExecuteFunc func(*Registry, device.CommandBuffer)

// passRecord is one registered pass plus everything Compile derived
// for it.
type passRecord struct {
	name        string
	accesses    []AccessDeclaration
	attachments []AttachmentDeclaration
	execute     ExecuteFunc

	// Compile outputs.

	// barriers run on the primary stream immediately before the pass.
	barriers []barrier

	// attachmentLayouts[i] is the layout attachments[i] is in when the
	// render pass opens. Captured during barrier synthesis so a later
	// access in the same pass cannot retroactively change what
	// BeginRendering observes.
	attachmentLayouts []vk.ImageLayout

	// inherit carries the attachment formats secondary streams record
	// against.
	inherit device.RenderInheritance

	// layer is the topological layer index, -1 before Compile.
	layer int
}

func (p *passRecord) clearCompiled() {
	p.barriers = p.barriers[:0]
	p.attachmentLayouts = p.attachmentLayouts[:0]
	p.inherit = device.RenderInheritance{}
	p.layer = -1
}

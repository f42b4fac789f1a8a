package framegraph

import (
	"context"
	"log/slog"

	vk "github.com/goki/vulkan"

	"github.com/intrinsicD/IntrinsicEngine-sub004/device"
)

// writeAccessMask collects every access bit the compiler treats as a
// write. Any write, previous or incoming, forces a barrier.
const writeAccessMask = vk.AccessFlags(vk.AccessShaderWriteBit) |
	vk.AccessFlags(vk.AccessColorAttachmentWriteBit) |
	vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit) |
	vk.AccessFlags(vk.AccessTransferWriteBit) |
	vk.AccessFlags(vk.AccessHostWriteBit) |
	vk.AccessFlags(vk.AccessMemoryWriteBit)

// isWriteAccess reports whether the mask contains any write bit.
func isWriteAccess(access vk.AccessFlags) bool {
	return access&writeAccessMask != 0
}

// barrier is one synchronization edge between a resource's previous
// use and its use by the owning pass. Handles, not physical objects:
// the executor resolves through the Registry when it emits.
type barrier struct {
	resource ResourceHandle
	isImage  bool

	srcStage  vk.PipelineStageFlags
	dstStage  vk.PipelineStageFlags
	srcAccess vk.AccessFlags
	dstAccess vk.AccessFlags
	oldLayout vk.ImageLayout
	newLayout vk.ImageLayout
}

// imageLayoutFor picks the single target layout implied by an access
// mask. A mask may legally combine several categories; the priority
// below is the package's fixed policy, highest first:
//
//	color attachment      -> ImageLayoutColorAttachmentOptimal
//	depth-stencil         -> ImageLayoutDepthStencilAttachmentOptimal
//	transfer write        -> ImageLayoutTransferDstOptimal
//	transfer read         -> ImageLayoutTransferSrcOptimal
//	shader read, no write -> ImageLayoutShaderReadOnlyOptimal
//	shader write or mixed -> ImageLayoutGeneral
//	anything else         -> ImageLayoutGeneral
//
// A shader write outranks a combined shader read because a read-only
// layout can never back a storage write.
func imageLayoutFor(access vk.AccessFlags) vk.ImageLayout {
	switch {
	case access&(vk.AccessFlags(vk.AccessColorAttachmentWriteBit)|vk.AccessFlags(vk.AccessColorAttachmentReadBit)) != 0:
		return vk.ImageLayoutColorAttachmentOptimal
	case access&(vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)|vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit)) != 0:
		return vk.ImageLayoutDepthStencilAttachmentOptimal
	case access&vk.AccessFlags(vk.AccessTransferWriteBit) != 0:
		return vk.ImageLayoutTransferDstOptimal
	case access&vk.AccessFlags(vk.AccessTransferReadBit) != 0:
		return vk.ImageLayoutTransferSrcOptimal
	case access&vk.AccessFlags(vk.AccessShaderWriteBit) != 0:
		return vk.ImageLayoutGeneral
	case access&vk.AccessFlags(vk.AccessShaderReadBit) != 0:
		return vk.ImageLayoutShaderReadOnlyOptimal
	default:
		return vk.ImageLayoutGeneral
	}
}

// attachmentTarget is the sync state an attachment binding implies.
// Load ops that read the previous contents add the read access bit so
// the barrier also orders against the producer of those contents.
func attachmentTarget(att AttachmentDeclaration) SyncState {
	if att.IsDepth {
		access := vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
		if att.LoadOp == vk.AttachmentLoadOpLoad {
			access |= vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit)
		}
		return SyncState{
			Stage: vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit) |
				vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit),
			Access: access,
			Layout: vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
	}
	access := vk.AccessFlags(vk.AccessColorAttachmentWriteBit)
	if att.LoadOp == vk.AttachmentLoadOpLoad {
		access |= vk.AccessFlags(vk.AccessColorAttachmentReadBit)
	}
	return SyncState{
		Stage:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		Access: access,
		Layout: vk.ImageLayoutColorAttachmentOptimal,
	}
}

// compileBarriers walks every pass in registration order and decides,
// per declaration, whether a barrier must precede the pass and what the
// resource's state becomes.
//
// Rules, per declaration against the resource's current state:
//   - a barrier is required when the target layout differs (images), or
//     the previous access wrote, or the new access writes;
//   - on barrier, the state is overwritten with the target;
//   - otherwise the target's stage and access are OR-merged into the
//     state, so a later check still sees every outstanding reader.
//
// Attachments are processed before plain accesses of the same pass and
// the layout each attachment observes is captured into the pass record;
// a later access must not change what BeginRendering sees.
func (g *Graph) compileBarriers() {
	for pi := range g.passes {
		p := &g.passes[pi]

		for _, att := range p.attachments {
			rec := &g.resources[att.Resource]
			target := attachmentTarget(att)
			g.applyUse(p, att.Resource, rec, target)
			p.attachmentLayouts = append(p.attachmentLayouts, target.Layout)

			if att.IsDepth {
				p.inherit.DepthFormat = rec.texture.Format
			} else {
				p.inherit.ColorFormats = append(p.inherit.ColorFormats, rec.texture.Format)
			}
		}

		for _, acc := range p.accesses {
			rec := &g.resources[acc.Resource]
			target := SyncState{Stage: acc.Stage, Access: acc.Access}
			if rec.isImage() {
				target.Layout = imageLayoutFor(acc.Access)
			}
			g.applyUse(p, acc.Resource, rec, target)
		}

		Logger().Debug("framegraph: pass compiled",
			"pass", p.name,
			"barriers", len(p.barriers),
			"attachments", len(p.attachments))
	}
}

// applyUse applies one declaration's target state to a resource,
// emitting a barrier onto the pass when one is required.
func (g *Graph) applyUse(p *passRecord, h ResourceHandle, rec *resourceRecord, target SyncState) {
	layoutChange := rec.isImage() && target.Layout != rec.state.Layout
	hazard := isWriteAccess(rec.state.Access) || isWriteAccess(target.Access)

	if !layoutChange && !hazard {
		// Pure read-after-read: widen so later declarations still see
		// every stage and access that may be in flight.
		rec.state.Stage |= target.Stage
		rec.state.Access |= target.Access
		return
	}

	p.barriers = append(p.barriers, barrier{
		resource:  h,
		isImage:   rec.isImage(),
		srcStage:  rec.state.Stage,
		dstStage:  target.Stage,
		srcAccess: rec.state.Access,
		dstAccess: target.Access,
		oldLayout: rec.state.Layout,
		newLayout: target.Layout,
	})
	if rec.isImage() && Logger().Enabled(context.Background(), slog.LevelDebug) {
		Logger().Debug("framegraph: barrier",
			"pass", p.name,
			"resource", rec.name,
			"from", layoutName(rec.state.Layout),
			"to", layoutName(target.Layout))
	}
	rec.state = target
}

// emitBarriers replays a pass's compiled barriers onto the primary
// stream, resolving handles through the registry. Unresolved resources
// are skipped; their passes already degraded at resolve time.
func (g *Graph) emitBarriers(primary device.CommandBuffer, p *passRecord) {
	for _, b := range p.barriers {
		if b.isImage {
			img, ok := g.registry.Image(b.resource)
			if !ok {
				continue
			}
			primary.ImageBarrier(device.ImageBarrier{
				Image:     img,
				SrcStage:  b.srcStage,
				DstStage:  b.dstStage,
				SrcAccess: b.srcAccess,
				DstAccess: b.dstAccess,
				OldLayout: b.oldLayout,
				NewLayout: b.newLayout,
			})
			continue
		}
		buf, ok := g.registry.Buffer(b.resource)
		if !ok {
			continue
		}
		primary.BufferBarrier(device.BufferBarrier{
			Buffer:    buf,
			SrcStage:  b.srcStage,
			DstStage:  b.dstStage,
			SrcAccess: b.srcAccess,
			DstAccess: b.dstAccess,
		})
	}
}

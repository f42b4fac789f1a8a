package framegraph

import (
	"fmt"

	"github.com/intrinsicD/IntrinsicEngine-sub004/device"
)

// Execute records the compiled frame onto the given primary command
// stream.
//
// Layers run strictly in order. Within a layer, each pass body records
// into its own secondary command buffer; those recordings are
// dispatched onto the scheduler and may run concurrently, which is
// safe because the bodies only read the frozen Registry. Once the
// layer's recordings are all done, the passes are committed onto the
// primary serially in registration order: barriers first, then the
// render pass (when the pass has attachments) wrapping the secondary
// replay. The primary stream is therefore deterministic for a given
// compiled graph, whatever the scheduler does.
//
// A pass whose secondary recording fails is skipped with an error log;
// its barriers are still emitted so the frame's state machine stays
// coherent for the passes that follow.
func (g *Graph) Execute(primary device.CommandBuffer) error {
	if !g.compiled {
		return ErrNotCompiled
	}
	if g.dev == nil {
		return ErrNoDevice
	}
	if primary == nil {
		return fmt.Errorf("framegraph: nil primary command buffer")
	}

	for li, layer := range g.layers {
		secondaries := make([]device.CommandBuffer, len(layer))
		errs := make([]error, len(layer))

		for slot, pi := range layer {
			p := &g.passes[pi]
			task := func(slot int, p *passRecord) func() {
				return func() {
					cb, err := g.recordPass(p)
					secondaries[slot] = cb
					errs[slot] = err
				}
			}(slot, p)

			if g.sched != nil {
				g.sched.Dispatch(task)
			} else {
				task()
			}
		}
		if g.sched != nil {
			g.sched.WaitForAll()
		}

		for slot, pi := range layer {
			p := &g.passes[pi]
			if errs[slot] != nil {
				Logger().Error("framegraph: pass recording failed, skipping",
					"pass", p.name, "layer", li, "error", errs[slot])
			}
			g.commitPass(primary, p, secondaries[slot])
		}
	}
	return nil
}

// recordPass records one pass body into a fresh secondary command
// buffer. Runs on a scheduler worker; it must only touch the pass
// record and the frozen registry. Passes with no body record an empty
// secondary so commit stays uniform.
func (g *Graph) recordPass(p *passRecord) (device.CommandBuffer, error) {
	cb, err := g.dev.NewCommandBuffer(false)
	if err != nil {
		return nil, fmt.Errorf("pass %q: %w", p.name, err)
	}

	var inherit *device.RenderInheritance
	if len(p.attachments) > 0 {
		inherit = &p.inherit
	}
	if err := cb.Begin(inherit); err != nil {
		return nil, fmt.Errorf("pass %q: begin: %w", p.name, err)
	}
	if p.execute != nil {
		p.execute(&g.registry, cb)
	}
	if err := cb.End(); err != nil {
		return nil, fmt.Errorf("pass %q: end: %w", p.name, err)
	}
	return cb, nil
}

// commitPass replays one pass onto the primary: its barriers, then its
// render pass (if any) around the secondary. Called serially in
// registration order within each layer.
func (g *Graph) commitPass(primary device.CommandBuffer, p *passRecord, secondary device.CommandBuffer) {
	g.emitBarriers(primary, p)
	if secondary == nil {
		return
	}

	if len(p.attachments) == 0 {
		primary.ExecuteCommands(secondary)
		return
	}

	info, ok := g.renderingInfo(p)
	if !ok {
		Logger().Error("framegraph: unresolved attachment, skipping pass",
			"pass", p.name)
		return
	}
	primary.BeginRendering(info)
	primary.ExecuteCommands(secondary)
	primary.EndRendering()
}

// renderingInfo assembles the dynamic-rendering description for a pass
// from its attachment declarations, the resolved images and the layouts
// captured at compile time. Returns false when any attachment failed to
// resolve; such a pass cannot open a render pass.
func (g *Graph) renderingInfo(p *passRecord) (device.RenderingInfo, bool) {
	var info device.RenderingInfo
	for ai, att := range p.attachments {
		img, ok := g.registry.Image(att.Resource)
		if !ok {
			return device.RenderingInfo{}, false
		}
		ra := device.RenderingAttachment{
			Image:   img,
			Layout:  p.attachmentLayouts[ai],
			LoadOp:  att.LoadOp,
			StoreOp: att.StoreOp,
			Clear:   att.Clear,
		}
		if att.IsDepth {
			info.Depth = &ra
		} else {
			info.Color = append(info.Color, ra)
		}
		if info.Width == 0 {
			info.Width = img.Width
			info.Height = img.Height
		}
	}
	return info, true
}

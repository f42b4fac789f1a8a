// Package framegraph schedules one frame of GPU work from declarative
// pass descriptions.
//
// # Overview
//
// Each frame, render passes are registered against a Graph. A pass
// declares, through a Builder, which logical images and buffers it
// reads and writes; it does not say when it runs or what barriers it
// needs. Compile then
//
//   - resolves transient resources against an aliasing pool, reusing
//     physical objects whose pass lifetimes do not overlap,
//   - synthesizes the image layout transitions and stage/access
//     barriers each pass requires,
//   - derives the pass dependency DAG from read/write hazards and
//     sorts it into layers of mutually independent passes,
//
// and Execute records each layer's pass bodies concurrently before
// committing them, with their barriers, to a single primary command
// stream in deterministic order.
//
// # Quick Start
//
//	g := framegraph.New(framegraph.WithDevice(dev))
//	defer g.Close()
//
//	// Per frame:
//	g.Reset()
//	g.AddPass("gbuffer",
//	    func(b *framegraph.Builder) {
//	        albedo = b.CreateTexture("albedo", albedoDesc)
//	        b.WriteColor(albedo, framegraph.AttachmentDesc{LoadOp: vk.AttachmentLoadOpClear})
//	    },
//	    func(r *framegraph.Registry, cb device.CommandBuffer) {
//	        // record draw calls against cb
//	    })
//	g.AddPass("lighting",
//	    func(b *framegraph.Builder) {
//	        b.Read(albedo,
//	            vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
//	            vk.AccessFlags(vk.AccessShaderReadBit))
//	        b.WriteColor(backbuffer, framegraph.AttachmentDesc{})
//	    },
//	    lightingExec)
//	if err := g.Compile(); err != nil { ... }
//	if err := g.Execute(primary); err != nil { ... }
//
// # Architecture
//
// The package is organized into:
//   - Declaration: Builder, pass and resource records (builder.go,
//     pass.go, resource.go)
//   - Compilation: barrier synthesis (barrier.go), hazard DAG and
//     layering (schedule.go), transient aliasing pool (pool.go)
//   - Execution: parallel recording and deterministic replay
//     (executor.go)
//   - Collaborators: the device abstraction (package device) and the
//     fork-join scheduler (internal/parallel, injectable via the
//     Scheduler interface)
//
// # Degraded Frames
//
// The frame path never panics and never aborts the process. Stale
// handles, a missing device, or a (defensively checked) dependency
// cycle degrade the affected passes or the frame's parallelism and are
// reported through the package logger; the next Reset starts clean.
package framegraph

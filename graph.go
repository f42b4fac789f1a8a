package framegraph

import (
	"errors"

	"github.com/intrinsicD/IntrinsicEngine-sub004/device"
	"github.com/intrinsicD/IntrinsicEngine-sub004/internal/parallel"
)

// Sentinel errors reported by Graph operations.
var (
	// ErrNoDevice is returned by Execute when no device collaborator
	// was configured; nothing can be recorded.
	ErrNoDevice = errors.New("framegraph: no device configured")

	// ErrNotCompiled is returned by Execute when Compile has not run
	// since the last Reset or AddPass.
	ErrNotCompiled = errors.New("framegraph: graph not compiled")
)

// Scheduler is the two-call fork-join contract the executor records
// through. Any thread pool satisfying it can be injected; the default
// is this module's work-stealing pool.
type Scheduler interface {
	// Dispatch submits one recording task.
	Dispatch(fn func())
	// WaitForAll blocks until every dispatched task has finished.
	WaitForAll()
}

// GraphOption configures a Graph during creation.
type GraphOption func(*graphOptions)

type graphOptions struct {
	dev              device.Device
	sched            Scheduler
	schedSet         bool
	passCapacity     int
	resourceCapacity int
}

func defaultGraphOptions() graphOptions {
	return graphOptions{
		passCapacity:     32,
		resourceCapacity: 64,
	}
}

// WithDevice sets the device collaborator that backs physical
// resources and command streams. Without one the graph still compiles
// (useful for tooling and tests) but Execute returns ErrNoDevice.
func WithDevice(dev device.Device) GraphOption {
	return func(o *graphOptions) {
		o.dev = dev
	}
}

// WithScheduler injects a custom recording scheduler. Passing nil
// forces inline (single-threaded) recording.
func WithScheduler(s Scheduler) GraphOption {
	return func(o *graphOptions) {
		o.sched = s
		o.schedSet = true
	}
}

// WithPassCapacity pre-sizes the per-frame pass store.
func WithPassCapacity(n int) GraphOption {
	return func(o *graphOptions) {
		if n > 0 {
			o.passCapacity = n
		}
	}
}

// WithResourceCapacity pre-sizes the per-frame resource store.
func WithResourceCapacity(n int) GraphOption {
	return func(o *graphOptions) {
		if n > 0 {
			o.resourceCapacity = n
		}
	}
}

// Graph owns one frame's pass and resource declarations and the
// machinery that compiles and executes them. The intended loop is
//
//	Reset -> AddPass... -> Compile -> Execute
//
// once per frame. A Graph is confined to the goroutine driving the
// frame; only the recording tasks Execute spawns run elsewhere, and
// they touch nothing but the read-only Registry.
type Graph struct {
	dev   device.Device
	sched Scheduler
	pool  *TransientPool

	// ownsSched is set when the default pool was created here and
	// Close should shut it down.
	ownsSched *parallel.WorkerPool

	passes    []passRecord
	resources []resourceRecord
	byName    map[string]ResourceHandle

	registry Registry
	layers   [][]int
	compiled bool
}

// New creates a Graph. With no options the graph has no device, so it
// can compile but not execute.
func New(opts ...GraphOption) *Graph {
	o := defaultGraphOptions()
	for _, opt := range opts {
		opt(&o)
	}

	g := &Graph{
		dev:       o.dev,
		sched:     o.sched,
		passes:    make([]passRecord, 0, o.passCapacity),
		resources: make([]resourceRecord, 0, o.resourceCapacity),
		byName:    make(map[string]ResourceHandle, o.resourceCapacity),
	}
	if o.dev != nil {
		g.pool = NewTransientPool(o.dev)
	}
	if !o.schedSet && o.dev != nil {
		wp := parallel.NewWorkerPool(0)
		g.sched = wp
		g.ownsSched = wp
	}
	return g
}

// Close releases the default scheduler if the graph created one.
// Injected schedulers and the device are the caller's to close.
func (g *Graph) Close() {
	if g.ownsSched != nil {
		g.ownsSched.Close()
		g.ownsSched = nil
		g.sched = nil
	}
}

// Reset discards the previous frame's declarations while keeping
// capacity. Every ResourceHandle handed out before Reset is invalid
// afterwards. Pooled physical objects survive; they are reclaimed by
// lifetime aliasing, not by Reset.
func (g *Graph) Reset() {
	g.passes = g.passes[:0]
	g.resources = g.resources[:0]
	clear(g.byName)
	g.layers = g.layers[:0]
	g.registry.reset(0)
	g.compiled = false
}

// AddPass registers a pass. The setup callback runs immediately
// against a Builder scoped to the new pass; execute runs during
// Execute, possibly on a scheduler worker. A nil execute is allowed
// for passes that only shape the graph (e.g. forcing a transition).
func (g *Graph) AddPass(name string, setup SetupFunc, execute ExecuteFunc) PassIndex {
	idx := len(g.passes)
	g.passes = append(g.passes, passRecord{
		name:    name,
		execute: execute,
		layer:   -1,
	})
	g.compiled = false

	if setup != nil {
		b := Builder{graph: g, pass: idx}
		setup(&b)
	}
	return PassIndex(idx)
}

// AddPass registers a pass that carries a typed data struct between
// its setup and execute callbacks, mirroring Graph.AddPass otherwise.
// One Data value is allocated per registration; both callbacks see the
// same instance, so setup can stash handles for execute to resolve.
func AddPass[Data any](g *Graph, name string,
	setup func(*Data, *Builder),
	execute func(*Data, *Registry, device.CommandBuffer),
) PassIndex {
	data := new(Data)
	var setupFn SetupFunc
	if setup != nil {
		setupFn = func(b *Builder) { setup(data, b) }
	}
	var execFn ExecuteFunc
	if execute != nil {
		execFn = func(r *Registry, cb device.CommandBuffer) { execute(data, r, cb) }
	}
	return g.AddPass(name, setupFn, execFn)
}

// addResource appends a record and indexes it by name.
func (g *Graph) addResource(rec resourceRecord) ResourceHandle {
	h := ResourceHandle(len(g.resources))
	g.resources = append(g.resources, rec)
	g.byName[rec.name] = h
	g.compiled = false
	return h
}

// Compile resolves physical resources, synthesizes barriers and builds
// the layered schedule. Compile is idempotent: with no intervening
// AddPass it produces identical barriers and layers, and resolved
// physical objects are kept rather than re-acquired.
func (g *Graph) Compile() error {
	// Derived state from a previous Compile of this same frame is
	// discarded; resources restart from their initial sync state.
	for pi := range g.passes {
		g.passes[pi].clearCompiled()
	}
	for ri := range g.resources {
		g.resources[ri].state = g.resources[ri].initial
	}

	g.resolve()
	g.compileBarriers()
	g.buildSchedule()

	g.compiled = true
	return nil
}

// resolve assigns physical backing to every resource and publishes it
// in the registry. Transients that already resolved this frame keep
// their assignment (idempotent recompile); a missing device leaves
// them unresolved and the affected passes degrade at Execute.
func (g *Graph) resolve() {
	g.registry.reset(len(g.resources))

	for ri := range g.resources {
		rec := &g.resources[ri]
		h := ResourceHandle(ri)

		switch rec.kind {
		case resourceImportedImage, resourceImportedBuffer:
			// Imported backing came from the caller.

		case resourceTransientImage:
			if rec.image == nil {
				if g.pool == nil {
					Logger().Warn("framegraph: no allocator, image unresolved",
						"resource", rec.name)
					continue
				}
				img, err := g.pool.AcquireImage(rec.texture, rec.lifetime)
				if err != nil {
					Logger().Warn("framegraph: image resolve failed",
						"resource", rec.name, "error", err)
					continue
				}
				rec.image = img
			}

		case resourceTransientBuffer:
			if rec.buf == nil {
				if g.pool == nil {
					Logger().Warn("framegraph: no allocator, buffer unresolved",
						"resource", rec.name)
					continue
				}
				buf, err := g.pool.AcquireBuffer(rec.buffer, rec.lifetime)
				if err != nil {
					Logger().Warn("framegraph: buffer resolve failed",
						"resource", rec.name, "error", err)
					continue
				}
				rec.buf = buf
			}
		}

		if rec.isImage() {
			g.registry.images[h] = rec.image
		} else {
			g.registry.buffers[h] = rec.buf
		}
	}
}

// RegistryView returns the current frame's registry. Valid after
// Compile; pass bodies receive the same registry directly.
func (g *Graph) RegistryView() *Registry {
	return &g.registry
}

// Pool exposes the transient pool, primarily for Trim on resize and
// for stats. Nil when the graph has no device.
func (g *Graph) Pool() *TransientPool {
	return g.pool
}

// Trim drops every pooled physical object. Caller-synchronized with
// GPU idleness, exactly like TransientPool.Trim.
func (g *Graph) Trim() {
	if g.pool != nil {
		g.pool.Trim()
	}
}

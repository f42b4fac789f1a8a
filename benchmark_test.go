package framegraph

import (
	"fmt"
	"testing"

	"github.com/intrinsicD/IntrinsicEngine-sub004/device"
)

// chainFrame declares n passes, each writing a fresh transient and
// reading the previous pass's output.
func chainFrame(g *Graph, n int) {
	prev := InvalidResource
	for i := 0; i < n; i++ {
		i := i
		g.AddPass(fmt.Sprintf("pass-%d", i), func(b *Builder) {
			if prev.IsValid() {
				readShader(b, prev)
			}
			h := b.CreateTexture(fmt.Sprintf("tex-%d", i), colorTarget(256, 256))
			writeShader(b, h)
			prev = h
		}, func(r *Registry, cb device.CommandBuffer) {})
	}
}

// wideFrame declares one producer and n independent consumers, the
// shape that stresses within-layer parallel recording.
func wideFrame(g *Graph, n int) {
	var src ResourceHandle
	g.AddPass("produce", func(b *Builder) {
		src = b.CreateTexture("scene", colorTarget(256, 256))
		writeShader(b, src)
	}, func(r *Registry, cb device.CommandBuffer) {})
	for i := 0; i < n; i++ {
		g.AddPass(fmt.Sprintf("consume-%d", i), func(b *Builder) {
			readShader(b, src)
		}, func(r *Registry, cb device.CommandBuffer) {})
	}
}

func BenchmarkCompile_Chain32(b *testing.B) {
	b.ReportAllocs()
	dev := newFakeDevice()
	g := New(WithDevice(dev), WithScheduler(nil))

	for i := 0; i < b.N; i++ {
		g.Reset()
		chainFrame(g, 32)
		if err := g.Compile(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCompile_Wide64(b *testing.B) {
	b.ReportAllocs()
	dev := newFakeDevice()
	g := New(WithDevice(dev), WithScheduler(nil))

	for i := 0; i < b.N; i++ {
		g.Reset()
		wideFrame(g, 64)
		if err := g.Compile(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExecute_Wide64(b *testing.B) {
	dev := newFakeDevice()
	g := New(WithDevice(dev))
	defer g.Close()

	wideFrame(g, 64)
	if err := g.Compile(); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cb, err := dev.NewCommandBuffer(true)
		if err != nil {
			b.Fatal(err)
		}
		if err := g.Execute(cb); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPoolAcquire(b *testing.B) {
	b.ReportAllocs()
	dev := newFakeDevice()
	pool := NewTransientPool(dev)
	desc := colorTarget(256, 256)

	for i := 0; i < b.N; i++ {
		dev.epoch++
		for j := 0; j < 16; j++ {
			if _, err := pool.AcquireImage(desc, Lifetime{First: j * 2, Last: j*2 + 1}); err != nil {
				b.Fatal(err)
			}
		}
	}
}

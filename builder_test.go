package framegraph

import (
	"testing"

	vk "github.com/goki/vulkan"

	"github.com/intrinsicD/IntrinsicEngine-sub004/device"
)

func TestCreateTextureDedupe(t *testing.T) {
	g := New()

	var h1, h2 ResourceHandle
	g.AddPass("producer", func(b *Builder) {
		h1 = b.CreateTexture("gbuffer", colorTarget(64, 64))
	}, nil)
	g.AddPass("consumer", func(b *Builder) {
		h2 = b.CreateTexture("gbuffer", colorTarget(128, 128))
	}, nil)

	if h1 != h2 {
		t.Fatalf("same name returned different handles: %d vs %d", h1, h2)
	}
	if got := len(g.resources); got != 1 {
		t.Fatalf("resource count = %d, want 1", got)
	}
	// First declaration wins on shape.
	if got := g.resources[h1].texture.Width; got != 64 {
		t.Errorf("width = %d, want 64 (first declaration)", got)
	}
	// The second declaration still widens the lifetime.
	want := Lifetime{First: 0, Last: 1}
	if got := g.resources[h1].lifetime; got != want {
		t.Errorf("lifetime = %+v, want %+v", got, want)
	}
}

func TestLifetimeWidening(t *testing.T) {
	g := New()

	var h ResourceHandle
	g.AddPass("p0", func(b *Builder) {
		h = b.CreateTexture("tex", colorTarget(8, 8))
	}, nil)
	g.AddPass("p1", nil, nil)
	g.AddPass("p2", func(b *Builder) {
		b.Read(h, vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			vk.AccessFlags(vk.AccessShaderReadBit))
	}, nil)

	want := Lifetime{First: 0, Last: 2}
	if got := g.resources[h].lifetime; got != want {
		t.Errorf("lifetime = %+v, want %+v", got, want)
	}
}

func TestImportPinsLifetimeStart(t *testing.T) {
	g := New()
	backbuffer := &device.Image{Width: 256, Height: 256, Format: vk.FormatB8g8r8a8Unorm}

	g.AddPass("p0", nil, nil)
	g.AddPass("p1", nil, nil)

	var h ResourceHandle
	g.AddPass("present-prep", func(b *Builder) {
		h = b.ImportTexture("backbuffer", backbuffer, SyncState{
			Stage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
			Layout: vk.ImageLayoutPresentSrc,
		})
	}, nil)

	want := Lifetime{First: 0, Last: 2}
	if got := g.resources[h].lifetime; got != want {
		t.Errorf("imported lifetime = %+v, want %+v", got, want)
	}
	if g.resources[h].image != backbuffer {
		t.Error("imported record does not carry the caller's image")
	}
}

func TestImportNil(t *testing.T) {
	g := New()
	g.AddPass("p", func(b *Builder) {
		if h := b.ImportTexture("img", nil, SyncState{}); h.IsValid() {
			t.Errorf("ImportTexture(nil) = %d, want InvalidResource", h)
		}
		if h := b.ImportBuffer("buf", nil, SyncState{}); h.IsValid() {
			t.Errorf("ImportBuffer(nil) = %d, want InvalidResource", h)
		}
	}, nil)
	if got := len(g.resources); got != 0 {
		t.Errorf("resource count = %d, want 0", got)
	}
}

func TestStaleHandleAfterReset(t *testing.T) {
	g := New()

	var h ResourceHandle
	g.AddPass("p", func(b *Builder) {
		h = b.CreateTexture("tex", colorTarget(8, 8))
	}, nil)

	g.Reset()

	g.AddPass("next-frame", func(b *Builder) {
		if got := b.Read(h, vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			vk.AccessFlags(vk.AccessShaderReadBit)); got.IsValid() {
			t.Errorf("Read(stale) = %d, want InvalidResource", got)
		}
	}, nil)

	if got := len(g.passes[0].accesses); got != 0 {
		t.Errorf("stale read recorded %d accesses, want 0", got)
	}
}

func TestWriteColorRecordsAttachmentOnly(t *testing.T) {
	g := New()

	g.AddPass("draw", func(b *Builder) {
		h := b.CreateTexture("target", colorTarget(32, 32))
		b.WriteColor(h, AttachmentDesc{LoadOp: vk.AttachmentLoadOpClear})
	}, nil)

	p := &g.passes[0]
	if got := len(p.attachments); got != 1 {
		t.Fatalf("attachments = %d, want 1", got)
	}
	if got := len(p.accesses); got != 0 {
		t.Errorf("accesses = %d, want 0 (attachment is not a plain access)", got)
	}
	if p.attachments[0].IsDepth {
		t.Error("WriteColor marked attachment as depth")
	}
}

func TestWriteDepth(t *testing.T) {
	g := New()
	g.AddPass("draw", func(b *Builder) {
		h := b.CreateTexture("depth", TextureDesc{
			Width: 32, Height: 32,
			Format: vk.FormatD32Sfloat,
			Usage:  vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
			Aspect: vk.ImageAspectFlags(vk.ImageAspectDepthBit),
		})
		b.WriteDepth(h, AttachmentDesc{LoadOp: vk.AttachmentLoadOpClear})
	}, nil)

	if !g.passes[0].attachments[0].IsDepth {
		t.Error("WriteDepth did not mark attachment as depth")
	}
}

func TestAttachmentDescZeroValueLoadsAndStores(t *testing.T) {
	var d AttachmentDesc
	if d.LoadOp != vk.AttachmentLoadOpLoad {
		t.Errorf("zero LoadOp = %d, want load", d.LoadOp)
	}
	if d.StoreOp != vk.AttachmentStoreOpStore {
		t.Errorf("zero StoreOp = %d, want store", d.StoreOp)
	}
}

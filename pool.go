package framegraph

import (
	vk "github.com/goki/vulkan"

	"github.com/intrinsicD/IntrinsicEngine-sub004/device"
)

// imageKey buckets pooled images by compatible shape. Two transient
// images may only share a physical object when every field matches.
type imageKey struct {
	width  uint32
	height uint32
	format vk.Format
	usage  vk.ImageUsageFlags
	aspect vk.ImageAspectFlags
}

// bufferKey buckets pooled buffers by compatible shape.
type bufferKey struct {
	size  vk.DeviceSize
	usage vk.BufferUsageFlags
}

// pooledImage is one physical image plus the pass intervals that have
// claimed it in the stamped frame.
type pooledImage struct {
	image     *device.Image
	page      *pooledPage
	intervals []Lifetime
	epoch     uint64
}

// pooledBuffer mirrors pooledImage for buffers. Buffers are created
// bound, so no page reference.
type pooledBuffer struct {
	buffer    *device.Buffer
	intervals []Lifetime
	epoch     uint64
}

// pooledPage is one device-memory page, claimed at page granularity by
// the images bound into it.
type pooledPage struct {
	mem       *device.Memory
	intervals []Lifetime
	epoch     uint64
}

// PoolStats counts pool activity since construction or the last Trim.
type PoolStats struct {
	ImageHits    uint64
	ImageMisses  uint64
	BufferHits   uint64
	BufferMisses uint64
	PagesInUse   uint64
}

// TransientPool hands physical images, buffers and memory pages to
// transient resources, aliasing allocations whose pass-lifetime
// intervals do not overlap.
//
// This is a best-effort 1-D interval allocator (graph coloring on an
// interval graph), not a bin packer: two resources with overlapping
// lifetimes always get distinct physical objects, even when a tighter
// packing exists.
//
// Entries persist across frames. Each entry stamps the device frame
// epoch when claimed; an entry whose stamp is stale had its last use in
// an earlier frame, so its interval set is cleared lazily before the
// overlap test. The caller guarantees the GPU is done with an epoch
// before the epoch advances.
//
// TransientPool is not safe for concurrent use; the graph only touches
// it from the single-threaded Compile phase.
type TransientPool struct {
	dev device.Device

	images  map[imageKey][]*pooledImage
	buffers map[bufferKey][]*pooledBuffer
	pages   map[uint32][]*pooledPage

	imageHits    uint64
	imageMisses  uint64
	bufferHits   uint64
	bufferMisses uint64
}

// NewTransientPool creates an empty pool backed by the given device.
// One pool serves one device; inject it rather than sharing globals.
func NewTransientPool(dev device.Device) *TransientPool {
	return &TransientPool{
		dev:     dev,
		images:  make(map[imageKey][]*pooledImage),
		buffers: make(map[bufferKey][]*pooledBuffer),
		pages:   make(map[uint32][]*pooledPage),
	}
}

// refresh lazily clears an interval set last touched in an earlier
// frame and restamps it.
func refresh(intervals []Lifetime, entryEpoch *uint64, now uint64) []Lifetime {
	if *entryEpoch != now {
		*entryEpoch = now
		return intervals[:0]
	}
	return intervals
}

func claimed(intervals []Lifetime, want Lifetime) bool {
	for _, iv := range intervals {
		if iv.Overlaps(want) {
			return true
		}
	}
	return false
}

// AcquireImage returns a physical image for the given shape whose
// existing claims do not overlap lifetime, creating and binding a new
// one on miss.
func (p *TransientPool) AcquireImage(desc TextureDesc, lifetime Lifetime) (*device.Image, error) {
	epoch := p.dev.FrameEpoch()
	key := imageKey{
		width:  desc.Width,
		height: desc.Height,
		format: desc.Format,
		usage:  desc.Usage,
		aspect: desc.Aspect,
	}

	for _, entry := range p.images[key] {
		entry.intervals = refresh(entry.intervals, &entry.epoch, epoch)
		entry.page.intervals = refresh(entry.page.intervals, &entry.page.epoch, epoch)
		// The image keeps its binding, so the page's claims bind it
		// too: another image aliased onto the same page may already
		// own part of this interval.
		if claimed(entry.intervals, lifetime) || claimed(entry.page.intervals, lifetime) {
			continue
		}
		entry.intervals = append(entry.intervals, lifetime)
		entry.page.intervals = append(entry.page.intervals, lifetime)
		p.imageHits++
		return entry.image, nil
	}

	img, err := p.dev.CreateImage(desc)
	if err != nil {
		return nil, err
	}
	req := p.dev.ImageMemoryRequirements(img)

	page, err := p.acquirePage(req, lifetime, epoch)
	if err != nil {
		p.dev.DestroyImage(img)
		return nil, err
	}
	if err := p.dev.BindImageMemory(img, page.mem, 0); err != nil {
		p.dev.DestroyImage(img)
		return nil, err
	}

	entry := &pooledImage{
		image:     img,
		page:      page,
		intervals: []Lifetime{lifetime},
		epoch:     epoch,
	}
	p.images[key] = append(p.images[key], entry)
	p.imageMisses++
	return img, nil
}

// acquirePage finds or allocates a memory page compatible with the
// requirements. Pages are keyed by memory-type bitmask and claimed
// whole per interval. There is no sub-page packing and images bind at
// offset 0, so req.Alignment is trivially satisfied; consult it before
// introducing sub-page offsets.
func (p *TransientPool) acquirePage(req device.MemoryRequirements, lifetime Lifetime, epoch uint64) (*pooledPage, error) {
	for _, page := range p.pages[req.TypeBits] {
		if page.mem.Size < req.Size {
			continue
		}
		page.intervals = refresh(page.intervals, &page.epoch, epoch)
		if claimed(page.intervals, lifetime) {
			continue
		}
		page.intervals = append(page.intervals, lifetime)
		return page, nil
	}

	mem, err := p.dev.AllocateMemory(req.Size, req.TypeBits)
	if err != nil {
		return nil, err
	}
	page := &pooledPage{
		mem:       mem,
		intervals: []Lifetime{lifetime},
		epoch:     epoch,
	}
	p.pages[req.TypeBits] = append(p.pages[req.TypeBits], page)
	return page, nil
}

// AcquireBuffer returns a physical buffer for the given shape whose
// existing claims do not overlap lifetime, creating one on miss.
func (p *TransientPool) AcquireBuffer(desc BufferDesc, lifetime Lifetime) (*device.Buffer, error) {
	epoch := p.dev.FrameEpoch()
	key := bufferKey{size: desc.Size, usage: desc.Usage}

	for _, entry := range p.buffers[key] {
		entry.intervals = refresh(entry.intervals, &entry.epoch, epoch)
		if claimed(entry.intervals, lifetime) {
			continue
		}
		entry.intervals = append(entry.intervals, lifetime)
		p.bufferHits++
		return entry.buffer, nil
	}

	buf, err := p.dev.CreateBuffer(desc)
	if err != nil {
		return nil, err
	}
	entry := &pooledBuffer{
		buffer:    buf,
		intervals: []Lifetime{lifetime},
		epoch:     epoch,
	}
	p.buffers[key] = append(p.buffers[key], entry)
	p.bufferMisses++
	return buf, nil
}

// Trim destroys every pooled object and resets the statistics. The
// caller must guarantee no GPU work against pooled resources is still
// outstanding (device idle or frame-fence wait); typical use is a
// window resize.
func (p *TransientPool) Trim() {
	for key, entries := range p.images {
		for _, entry := range entries {
			p.dev.DestroyImage(entry.image)
		}
		delete(p.images, key)
	}
	for key, entries := range p.buffers {
		for _, entry := range entries {
			p.dev.DestroyBuffer(entry.buffer)
		}
		delete(p.buffers, key)
	}
	for key, pages := range p.pages {
		for _, page := range pages {
			p.dev.FreeMemory(page.mem)
		}
		delete(p.pages, key)
	}
	p.imageHits = 0
	p.imageMisses = 0
	p.bufferHits = 0
	p.bufferMisses = 0

	Logger().Debug("framegraph: transient pool trimmed")
}

// Stats returns a snapshot of pool activity.
func (p *TransientPool) Stats() PoolStats {
	var pages uint64
	for _, list := range p.pages {
		pages += uint64(len(list))
	}
	return PoolStats{
		ImageHits:    p.imageHits,
		ImageMisses:  p.imageMisses,
		BufferHits:   p.bufferHits,
		BufferMisses: p.bufferMisses,
		PagesInUse:   pages,
	}
}

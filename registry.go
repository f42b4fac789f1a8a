package framegraph

import (
	"github.com/intrinsicD/IntrinsicEngine-sub004/device"
)

// Registry maps resource handles to the physical objects resolved for
// the current frame. It is populated during Compile and read-only
// afterwards, which is what makes it safe to consult from concurrent
// pass-recording tasks without locking.
type Registry struct {
	images  []*device.Image
	buffers []*device.Buffer
}

// Image returns the physical image behind h. The second result is
// false for stale handles, buffer resources, and resources the pool
// could not resolve.
func (r *Registry) Image(h ResourceHandle) (*device.Image, bool) {
	if !h.IsValid() || int(h) >= len(r.images) || r.images[h] == nil {
		return nil, false
	}
	return r.images[h], true
}

// Buffer returns the physical buffer behind h, with the same failure
// contract as Image.
func (r *Registry) Buffer(h ResourceHandle) (*device.Buffer, bool) {
	if !h.IsValid() || int(h) >= len(r.buffers) || r.buffers[h] == nil {
		return nil, false
	}
	return r.buffers[h], true
}

// reset re-sizes the registry for n resources and clears all entries.
func (r *Registry) reset(n int) {
	if cap(r.images) < n {
		r.images = make([]*device.Image, n)
		r.buffers = make([]*device.Buffer, n)
		return
	}
	r.images = r.images[:n]
	r.buffers = r.buffers[:n]
	for i := 0; i < n; i++ {
		r.images[i] = nil
		r.buffers[i] = nil
	}
}

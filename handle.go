package framegraph

// ResourceHandle is an opaque reference to a logical resource declared
// in the current frame. Handles are plain indices into the frame's
// resource table: they carry no generation counter, compare by value,
// and become invalid as soon as Reset is called.
type ResourceHandle uint32

// PassIndex identifies a registered pass within the current frame, in
// registration order.
type PassIndex int32

// InvalidResource is the sentinel returned by Builder calls that fail
// (stale handle, undeclared resource).
const InvalidResource = ResourceHandle(^uint32(0))

// IsValid returns true if the handle is not the invalid sentinel. It
// says nothing about whether the handle belongs to the current frame;
// only the owning Graph can tell.
func (h ResourceHandle) IsValid() bool {
	return h != InvalidResource
}

package heap

import "unsafe"

// Region is a contiguous memory region growable only at its high end.
// The full capacity is reserved up front as a single Go allocation, so
// the base address never changes while the region grows.
type Region struct {
	buf  []byte
	size uint64
}

// NewRegion ...
func NewRegion(limit uint64) *Region {
	if limit == 0 {
		panic("limit must > 0")
	}
	return &Region{
		buf: make([]byte, limit),
	}
}

// Base ...
func (r *Region) Base() unsafe.Pointer {
	return unsafe.Pointer(&r.buf[0])
}

// Size ...
func (r *Region) Size() uint64 {
	return r.size
}

// Extend grows the region by delta bytes and returns the previous high
// boundary. Fails without side effect when the reserved capacity is
// exhausted.
func (r *Region) Extend(delta uint64) (uint64, bool) {
	if delta > uint64(len(r.buf))-r.size {
		return 0, false
	}
	old := r.size
	r.size += delta
	return old, true
}

//go:build unix

package heap

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// MapRegion is a Region backed by an anonymous private mapping, so the
// reserved capacity stays outside the Go heap and untouched pages cost
// nothing until first write.
type MapRegion struct {
	buf  []byte
	size uint64
}

// NewMapRegion ...
func NewMapRegion(limit uint64) (*MapRegion, error) {
	buf, err := unix.Mmap(-1, 0, int(limit),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	return &MapRegion{buf: buf}, nil
}

// Base ...
func (r *MapRegion) Base() unsafe.Pointer {
	return unsafe.Pointer(&r.buf[0])
}

// Size ...
func (r *MapRegion) Size() uint64 {
	return r.size
}

// Extend ...
func (r *MapRegion) Extend(delta uint64) (uint64, bool) {
	if delta > uint64(len(r.buf))-r.size {
		return 0, false
	}
	old := r.size
	r.size += delta
	return old, true
}

// Close unmaps the region. All offsets become invalid.
func (r *MapRegion) Close() error {
	return unix.Munmap(r.buf)
}

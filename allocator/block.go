package allocator

import "unsafe"

const (
	alignment = 8
	wordSize  = 8

	// a block must hold header, footer and the two free-list links
	minBlockSize = 4 * wordSize

	// free blocks above this size are worth extending in place at the
	// heap end; smaller ones are left alone so small blocks cluster
	tailThreshold = 50 * wordSize

	nullPtr uint64 = 0
)

// freeLinks are the intrusive list fields stored in the payload area of
// a free block, valid only while the block is unallocated.
type freeLinks struct {
	next uint64
	prev uint64
}

func alignUp(size uint64) uint64 {
	return (size + alignment - 1) &^ (alignment - 1)
}

func packTag(size uint64, allocated bool) uint64 {
	if allocated {
		return size | 1
	}
	return size
}

func tagSize(tag uint64) uint64 {
	return tag &^ 1
}

func tagAllocated(tag uint64) bool {
	return tag&1 != 0
}

// ToRealAddr ...
func (a *Allocator) ToRealAddr(off uint64) unsafe.Pointer {
	return unsafe.Pointer(uintptr(a.base) + uintptr(off))
}

func (a *Allocator) word(off uint64) *uint64 {
	return (*uint64)(a.ToRealAddr(off))
}

func (a *Allocator) links(off uint64) *freeLinks {
	return (*freeLinks)(a.ToRealAddr(off + wordSize))
}

func (a *Allocator) blockSize(off uint64) uint64 {
	return tagSize(*a.word(off))
}

func (a *Allocator) blockAllocated(off uint64) bool {
	return tagAllocated(*a.word(off))
}

func (a *Allocator) nextBlock(off uint64) uint64 {
	return off + a.blockSize(off)
}

// setTags writes header and footer together, keeping them in agreement.
func (a *Allocator) setTags(off uint64, size uint64, allocated bool) {
	tag := packTag(size, allocated)
	*a.word(off) = tag
	*a.word(off + size - wordSize) = tag
}

// moveData copies n bytes between offsets with memmove semantics, since
// realloc placements shift payloads within overlapping ranges.
func (a *Allocator) moveData(dst uint64, src uint64, n uint64) {
	dstBuf := unsafe.Slice((*byte)(a.ToRealAddr(dst)), n)
	srcBuf := unsafe.Slice((*byte)(a.ToRealAddr(src)), n)
	copy(dstBuf, srcBuf)
}

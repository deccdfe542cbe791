package allocator

import (
	"errors"
	"math"
	"unsafe"
)

var (
	// ErrOutOfMemory ...
	ErrOutOfMemory = errors.New("allocator: heap region exhausted")
	// ErrInvalidFree ...
	ErrInvalidFree = errors.New("allocator: free of unallocated block")
)

// Provider is the heap provider: a contiguous region with a stable base
// address, growable only at its high end.
type Provider interface {
	Base() unsafe.Pointer
	Size() uint64
	Extend(delta uint64) (uint64, bool)
}

// Allocator manages the provider's region as a gapless sequence of
// boundary-tagged blocks indexed by segregated free lists. Addresses are
// offsets from the region base; offset 0 is the null value, since the
// bucket array itself occupies the low end of the region.
//
// Not safe for concurrent use.
type Allocator struct {
	heap Provider
	base unsafe.Pointer

	memoryUsage uint64
}

// New claims the bucket array storage from the provider and resets every
// bucket to empty. The provider must be fresh.
func New(heap Provider) (*Allocator, error) {
	a := &Allocator{
		heap: heap,
		base: heap.Base(),
	}
	if _, ok := heap.Extend(seglistBytes); !ok {
		return nil, ErrOutOfMemory
	}
	for i := 0; i < maxPow; i++ {
		*a.bucketHead(i) = nullPtr
	}
	return a, nil
}

// larger requests would overflow the block size computation
const maxRequestSize = math.MaxUint64 - (2*wordSize + alignment - 1)

func blockNeed(size uint64) uint64 {
	need := alignUp(size + 2*wordSize)
	if need < minBlockSize {
		need = minBlockSize
	}
	return need
}

// Allocate returns the payload offset of a block able to hold size
// bytes. Size 0 or a size too large to carry the block overhead yields
// the null offset with no heap mutation; a refused extension yields
// null with the index untouched.
func (a *Allocator) Allocate(size uint64) (uint64, bool) {
	if size == 0 || size > maxRequestSize {
		return nullPtr, false
	}
	need := blockNeed(size)

	if off := a.findFit(need); off != nullPtr {
		a.removeFree(off)
		// split when the remainder can stand alone, otherwise hand
		// out the whole candidate rather than leave a splinter
		blockSize := a.blockSize(off)
		if blockSize-need >= minBlockSize {
			a.setTags(off+need, blockSize-need, false)
			a.insertFree(off + need)
			blockSize = need
		}
		a.setTags(off, blockSize, true)
		a.memoryUsage += blockSize
		return off + wordSize, true
	}
	return a.allocateTail(need)
}

// allocateTail satisfies a request at the high end of the heap when no
// free block fits.
func (a *Allocator) allocateTail(need uint64) (uint64, bool) {
	heapSize := a.heap.Size()
	if heapSize > seglistBytes {
		lastTag := *a.word(heapSize - wordSize)
		if !tagAllocated(lastTag) {
			lastSize := tagSize(lastTag)
			last := heapSize - lastSize
			if lastSize > tailThreshold {
				// the free tail is too big to ignore: grow it
				// into an exact fit
				if _, ok := a.heap.Extend(need - lastSize); !ok {
					return nullPtr, false
				}
				a.removeFree(last)
				a.setTags(last, need, true)
				a.memoryUsage += need
				return last + wordSize, true
			}
			// the free tail is small: leave it for a future small
			// request and allocate fresh space above it
			old, ok := a.heap.Extend(need)
			if !ok {
				return nullPtr, false
			}
			a.setTags(old, need, true)
			a.memoryUsage += need
			return old + wordSize, true
		}
	}

	// empty heap or allocated tail
	if need > tailThreshold {
		old, ok := a.heap.Extend(need)
		if !ok {
			return nullPtr, false
		}
		a.setTags(old, need, true)
		a.memoryUsage += need
		return old + wordSize, true
	}

	// small request: extend twice the need and keep the second half
	// free, so future small blocks land next to this one
	old, ok := a.heap.Extend(2 * need)
	if !ok {
		return nullPtr, false
	}
	a.setTags(old, need, true)
	a.setTags(old+need, need, false)
	a.insertFree(old + need)
	a.memoryUsage += need
	return old + wordSize, true
}

// Free releases the block owning ptr, merging it with free neighbors
// before reinsertion. Freeing a block not marked allocated is a protocol
// violation and leaves the heap unchanged.
func (a *Allocator) Free(ptr uint64) error {
	if ptr == nullPtr {
		return nil
	}
	off := ptr - wordSize
	if !a.blockAllocated(off) {
		return ErrInvalidFree
	}
	a.memoryUsage -= a.blockSize(off)
	a.insertFree(a.coalesce(off))
	return nil
}

// coalesce merges the block at off with its free structural neighbors,
// unlinking them from the index, and returns the merged block's offset
// with free tags written. One hop in each direction is enough: no two
// adjacent blocks are ever left free.
func (a *Allocator) coalesce(off uint64) uint64 {
	size := a.blockSize(off)

	next := off + size
	if next < a.heap.Size() && !a.blockAllocated(next) {
		a.removeFree(next)
		size += a.blockSize(next)
	}

	if off > seglistBytes {
		// the word before the header is the previous block's footer
		prevTag := *a.word(off - wordSize)
		if !tagAllocated(prevTag) {
			prev := off - tagSize(prevTag)
			a.removeFree(prev)
			size += tagSize(prevTag)
			off = prev
		}
	}

	a.setTags(off, size, false)
	return off
}

// releaseTail turns the span at off into a free block, merging it with a
// free block that may follow before insertion.
func (a *Allocator) releaseTail(off uint64, size uint64) {
	next := off + size
	if next < a.heap.Size() && !a.blockAllocated(next) {
		a.removeFree(next)
		size += a.blockSize(next)
	}
	a.setTags(off, size, false)
	a.insertFree(off)
}

// Bytes exposes the payload of an allocated block. The slice aliases the
// managed region and is invalidated by Free and Realloc.
func (a *Allocator) Bytes(ptr uint64, n uint64) []byte {
	return unsafe.Slice((*byte)(a.ToRealAddr(ptr)), n)
}

// GetMemUsage returns the bytes currently held by allocated blocks,
// including their boundary tags.
func (a *Allocator) GetMemUsage() uint64 {
	return a.memoryUsage
}

// HeapSize ...
func (a *Allocator) HeapSize() uint64 {
	return a.heap.Size()
}

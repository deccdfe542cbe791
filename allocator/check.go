package allocator

import "fmt"

// Check walks the free-list index and the whole heap and reports the
// first structural violation found. It is meant for verification builds
// and tests, never for the allocation path.
func (a *Allocator) Check() error {
	heapSize := a.heap.Size()

	for index := 0; index < maxPow; index++ {
		var prevSize uint64
		for off := *a.bucketHead(index); off != nullPtr; off = a.links(off).next {
			if off < seglistBytes || off >= heapSize {
				return fmt.Errorf("bucket %d: entry offset %d outside the heap", index, off)
			}
			if a.blockAllocated(off) {
				return fmt.Errorf("bucket %d: block at %d is marked allocated", index, off)
			}
			size := a.blockSize(off)
			if bucketIndex(size) != index {
				return fmt.Errorf("bucket %d: block at %d has size %d, belongs in bucket %d",
					index, off, size, bucketIndex(size))
			}
			if size < prevSize {
				return fmt.Errorf("bucket %d: not sorted at block %d", index, off)
			}
			prevSize = size
		}
	}

	prevFree := false
	for off := uint64(seglistBytes); off < heapSize; off = a.nextBlock(off) {
		size := a.blockSize(off)
		if size < minBlockSize || size%alignment != 0 || off+size > heapSize {
			return fmt.Errorf("block at %d: invalid size %d", off, size)
		}
		if *a.word(off) != *a.word(off + size - wordSize) {
			return fmt.Errorf("block at %d: header and footer disagree", off)
		}
		free := !a.blockAllocated(off)
		if free && prevFree {
			return fmt.Errorf("block at %d: adjacent to a previous free block", off)
		}
		if free && !a.reachable(off, size) {
			return fmt.Errorf("free block at %d: not linked in bucket %d", off, bucketIndex(size))
		}
		prevFree = free
	}
	return nil
}

func (a *Allocator) reachable(off uint64, size uint64) bool {
	for cur := *a.bucketHead(bucketIndex(size)); cur != nullPtr; cur = a.links(cur).next {
		if cur == off {
			return true
		}
	}
	return false
}

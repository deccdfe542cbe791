package allocator

// Realloc resizes the block owning ptr to hold size bytes, preferring
// in-place placements over moving the payload. A null ptr behaves as
// Allocate; size 0 behaves as Free and yields the null offset, refused
// when the block is not allocated. On a refused extension or a size too
// large to carry the block overhead the original block is left
// untouched.
func (a *Allocator) Realloc(ptr uint64, size uint64) (uint64, bool) {
	if ptr == nullPtr {
		return a.Allocate(size)
	}
	if size == 0 {
		if err := a.Free(ptr); err != nil {
			return nullPtr, false
		}
		return nullPtr, true
	}
	if size > maxRequestSize {
		return nullPtr, false
	}

	off := ptr - wordSize
	current := a.blockSize(off)
	need := blockNeed(size)

	if need <= current {
		return a.shrink(off, current, need), true
	}
	return a.grow(off, current, need)
}

// shrink keeps the front of the block and releases the tail when the
// leftover is big enough to stand alone; otherwise the block keeps its
// original size and the waste is tolerated.
func (a *Allocator) shrink(off uint64, current uint64, need uint64) uint64 {
	if current-need > minBlockSize {
		a.setTags(off, need, true)
		a.releaseTail(off+need, current-need)
		a.memoryUsage -= current - need
	}
	return off + wordSize
}

func (a *Allocator) grow(off uint64, current uint64, need uint64) (uint64, bool) {
	heapSize := a.heap.Size()
	payload := current - 2*wordSize

	next := off + current
	nextFree := next < heapSize && !a.blockAllocated(next)
	var nextSize uint64
	if nextFree {
		nextSize = a.blockSize(next)
	}

	prevFree := false
	var prevSize uint64
	if off > seglistBytes {
		prevTag := *a.word(off - wordSize)
		if !tagAllocated(prevTag) {
			prevFree = true
			prevSize = tagSize(prevTag)
		}
	}
	prevOff := off - prevSize

	// sandwiched between two free blocks whose combined span fits
	if prevFree && nextFree && prevSize+current+nextSize >= need {
		total := prevSize + current + nextSize
		leftover := total - need
		a.removeFree(next)
		a.removeFree(prevOff)

		if leftover < minBlockSize {
			a.moveData(prevOff+wordSize, off+wordSize, payload)
			a.setTags(prevOff, total, true)
			a.memoryUsage += total - current
			return prevOff + wordSize, true
		}
		// the resized block goes to the highest address of the span,
		// keeping the free leftover available for later extension
		newOff := prevOff + leftover
		a.moveData(newOff+wordSize, off+wordSize, payload)
		a.setTags(newOff, need, true)
		a.setTags(prevOff, leftover, false)
		a.insertFree(prevOff)
		a.memoryUsage += need - current
		return newOff + wordSize, true
	}

	// grow forward into a free next block, no data move
	if nextFree && current+nextSize >= need {
		total := current + nextSize
		a.removeFree(next)
		if total-need < minBlockSize {
			a.setTags(off, total, true)
			a.memoryUsage += total - current
		} else {
			a.setTags(off, need, true)
			a.releaseTail(off+need, total-need)
			a.memoryUsage += need - current
		}
		return off + wordSize, true
	}

	// slide backward into a free previous block
	if prevFree && prevSize+current >= need {
		total := prevSize + current
		a.removeFree(prevOff)
		if total-need < minBlockSize {
			a.moveData(prevOff+wordSize, off+wordSize, payload)
			a.setTags(prevOff, total, true)
			a.memoryUsage += total - current
			return prevOff + wordSize, true
		}
		leftover := total - need
		newOff := prevOff + leftover
		a.moveData(newOff+wordSize, off+wordSize, payload)
		a.setTags(newOff, need, true)
		a.setTags(prevOff, leftover, false)
		a.insertFree(prevOff)
		a.memoryUsage += need - current
		return newOff + wordSize, true
	}

	// last block of the heap: extend by exactly the missing bytes,
	// folding in a free previous block first
	if next >= heapSize {
		newOff := off
		if prevFree {
			if _, ok := a.heap.Extend(need - (prevSize + current)); !ok {
				return nullPtr, false
			}
			a.removeFree(prevOff)
			a.moveData(prevOff+wordSize, off+wordSize, payload)
			newOff = prevOff
		} else {
			if _, ok := a.heap.Extend(need - current); !ok {
				return nullPtr, false
			}
		}
		a.setTags(newOff, need, true)
		a.memoryUsage += need - current
		return newOff + wordSize, true
	}

	// worst case: fresh block, move, release the original
	newPtr, ok := a.Allocate(need - 2*wordSize)
	if !ok {
		return nullPtr, false
	}
	a.moveData(newPtr, off+wordSize, payload)
	a.Free(off + wordSize)
	return newPtr, true
}

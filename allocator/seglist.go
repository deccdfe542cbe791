package allocator

import "math/bits"

const (
	maxPow = 25

	// the bucket head array occupies the low end of the managed region
	seglistBytes = maxPow * wordSize
)

// bucketIndex classifies a block size into its segregated list: bucket 0
// for sizes below 64, otherwise floor(log2(size)) - 5, clamped.
func bucketIndex(size uint64) int {
	if size < 64 {
		return 0
	}
	index := bits.Len64(size) - 6
	if index >= maxPow {
		return maxPow - 1
	}
	return index
}

func (a *Allocator) bucketHead(index int) *uint64 {
	return a.word(uint64(index) * wordSize)
}

// insertFree links a free block into its bucket, keeping the list sorted
// ascending by size. Equal sizes keep insertion order stable enough: the
// scan stops at the first entry not smaller than the new block.
func (a *Allocator) insertFree(off uint64) {
	size := a.blockSize(off)
	head := a.bucketHead(bucketIndex(size))

	prev := nullPtr
	cur := *head
	for cur != nullPtr && a.blockSize(cur) < size {
		prev = cur
		cur = a.links(cur).next
	}

	node := a.links(off)
	node.next = cur
	node.prev = prev
	if cur != nullPtr {
		a.links(cur).prev = off
	}
	if prev != nullPtr {
		a.links(prev).next = off
	} else {
		*head = off
	}
}

// removeFree unlinks a free block using its own link fields; head, tail,
// middle and sole-entry cases all reduce to the two pointer swings.
func (a *Allocator) removeFree(off uint64) {
	node := a.links(off)
	if node.next != nullPtr {
		a.links(node.next).prev = node.prev
	}
	if node.prev != nullPtr {
		a.links(node.prev).next = node.next
	} else {
		*a.bucketHead(bucketIndex(a.blockSize(off))) = node.next
	}
}

// findFit returns the first free block able to hold size, scanning the
// matching bucket then every larger one. Within a bucket the sorted
// order makes the first qualifying entry the best fit; across buckets
// this is deliberately not a global best fit.
func (a *Allocator) findFit(size uint64) uint64 {
	for index := bucketIndex(size); index < maxPow; index++ {
		for off := *a.bucketHead(index); off != nullPtr; off = a.links(off).next {
			if a.blockSize(off) >= size {
				return off
			}
		}
	}
	return nullPtr
}

func (a *Allocator) contentOfBucket(index int) []uint64 {
	var result []uint64
	for off := *a.bucketHead(index); off != nullPtr; off = a.links(off).next {
		result = append(result, off)
	}
	return result
}

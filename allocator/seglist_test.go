package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/memlab/segalloc/heap"
)

func newTestAllocator(t *testing.T, limit uint64) *Allocator {
	a, err := New(heap.NewRegion(limit))
	assert.Nil(t, err)
	return a
}

// claimFreeBlock extends the heap by size and shapes the new span into a
// free block, bypassing the allocation policy.
func claimFreeBlock(a *Allocator, size uint64) uint64 {
	off, _ := a.heap.Extend(size)
	a.setTags(off, size, false)
	return off
}

func TestBucketIndex(t *testing.T) {
	table := []struct {
		size  uint64
		index int
	}{
		{size: 32, index: 0},
		{size: 63, index: 0},
		{size: 64, index: 1},
		{size: 120, index: 1},
		{size: 128, index: 2},
		{size: 1024, index: 5},
		{size: 1 << 29, index: 24},
		{size: 1 << 40, index: 24},
	}

	for _, e := range table {
		assert.Equal(t, e.index, bucketIndex(e.size), "size %d", e.size)
	}
}

func TestSeglistInsertOrdered(t *testing.T) {
	a := newTestAllocator(t, 4096)

	b1 := claimFreeBlock(a, 48)
	b2 := claimFreeBlock(a, 32)
	b3 := claimFreeBlock(a, 40)

	a.insertFree(b1)
	a.insertFree(b2)
	a.insertFree(b3)

	assert.Equal(t, []uint64{b2, b3, b1}, a.contentOfBucket(0))

	// an equal size stops the scan at the first entry not smaller
	b4 := claimFreeBlock(a, 32)
	a.insertFree(b4)
	assert.Equal(t, []uint64{b4, b2, b3, b1}, a.contentOfBucket(0))
}

func TestSeglistRemove(t *testing.T) {
	a := newTestAllocator(t, 4096)

	b1 := claimFreeBlock(a, 48)
	b2 := claimFreeBlock(a, 32)
	b3 := claimFreeBlock(a, 40)
	a.insertFree(b1)
	a.insertFree(b2)
	a.insertFree(b3)

	a.removeFree(b3) // middle
	assert.Equal(t, []uint64{b2, b1}, a.contentOfBucket(0))

	a.removeFree(b2) // head
	assert.Equal(t, []uint64{b1}, a.contentOfBucket(0))

	a.removeFree(b1) // sole entry
	assert.Equal(t, []uint64(nil), a.contentOfBucket(0))
	assert.Equal(t, nullPtr, *a.bucketHead(0))
}

func TestSeglistFindFit(t *testing.T) {
	a := newTestAllocator(t, 8192)

	small := claimFreeBlock(a, 32)
	mid := claimFreeBlock(a, 128)
	a.insertFree(small)
	a.insertFree(mid)

	assert.Equal(t, small, a.findFit(32))
	assert.Equal(t, mid, a.findFit(40))
	assert.Equal(t, mid, a.findFit(128))
	assert.Equal(t, nullPtr, a.findFit(200))

	big := claimFreeBlock(a, 512)
	a.insertFree(big)
	assert.Equal(t, big, a.findFit(200))
	assert.Equal(t, nullPtr, a.findFit(1024))
}

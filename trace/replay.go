package trace

import (
	"fmt"
	"strconv"

	"github.com/tidwall/hashmap"
	"github.com/zeebo/xxh3"

	"github.com/memlab/segalloc/allocator"
)

// Result summarizes a replayed trace.
type Result struct {
	Allocs   int
	Frees    int
	Reallocs int
	Failed   int // operations refused by the allocator (out of memory)

	PeakLive uint64 // highest sum of concurrently live requested bytes
	HeapSize uint64 // final managed region size
}

// Utilization is the peak-live to heap-size ratio; higher means less
// fragmentation overhead.
func (r Result) Utilization() float64 {
	if r.HeapSize == 0 {
		return 0
	}
	return float64(r.PeakLive) / float64(r.HeapSize)
}

type liveBlock struct {
	ptr  uint64
	size uint64
	sum  uint64
}

// Replayer drives an allocator through a trace, filling every payload
// with a ref-derived pattern and verifying its checksum before the block
// is freed or resized, so any overlap or corruption surfaces.
type Replayer struct {
	alloc  *allocator.Allocator
	live   *hashmap.Map[int, liveBlock]
	verify bool

	liveBytes uint64
	result    Result
}

// NewReplayer ...
func NewReplayer(a *allocator.Allocator, verify bool) *Replayer {
	return &Replayer{
		alloc:  a,
		live:   hashmap.New[int, liveBlock](0),
		verify: verify,
	}
}

// Run replays the trace. A malformed trace (unknown ref, double free) or
// a payload checksum mismatch stops the replay with an error.
func (r *Replayer) Run(t *Trace) (Result, error) {
	for i, op := range t.Ops {
		if err := r.step(op); err != nil {
			return r.result, fmt.Errorf("op %d (%s ref %d): %w", i, op.Kind, op.Ref, err)
		}
		if r.verify {
			if err := r.alloc.Check(); err != nil {
				return r.result, fmt.Errorf("after op %d (%s ref %d): %w", i, op.Kind, op.Ref, err)
			}
		}
	}
	r.result.HeapSize = r.alloc.HeapSize()
	return r.result, nil
}

func (r *Replayer) step(op Op) error {
	switch op.Kind {
	case OpAlloc:
		r.result.Allocs++
		ptr, ok := r.alloc.Allocate(op.Size)
		if !ok {
			r.result.Failed++
			return nil
		}
		r.track(op.Ref, ptr, op.Size)

	case OpFree:
		r.result.Frees++
		block, ok := r.live.Get(op.Ref)
		if !ok {
			return fmt.Errorf("ref is not live")
		}
		if err := r.verifyPayload(block); err != nil {
			return err
		}
		if err := r.alloc.Free(block.ptr); err != nil {
			return err
		}
		r.live.Delete(op.Ref)
		r.liveBytes -= block.size

	case OpRealloc:
		r.result.Reallocs++
		block, ok := r.live.Get(op.Ref)
		if !ok {
			return fmt.Errorf("ref is not live")
		}
		if err := r.verifyPayload(block); err != nil {
			return err
		}
		if op.Size == 0 {
			// realloc to zero releases the block
			if _, ok := r.alloc.Realloc(block.ptr, 0); !ok {
				return fmt.Errorf("realloc to zero failed")
			}
			r.live.Delete(op.Ref)
			r.liveBytes -= block.size
			return nil
		}
		ptr, ok := r.alloc.Realloc(block.ptr, op.Size)
		if !ok {
			r.result.Failed++
			return nil
		}
		// the payload prefix up to the smaller size must survive the
		// resize, moved or not
		prefix := op.Size
		if block.size < prefix {
			prefix = block.size
		}
		if err := checkPattern(r.alloc.Bytes(ptr, prefix), op.Ref); err != nil {
			return err
		}
		r.liveBytes -= block.size
		r.track(op.Ref, ptr, op.Size)

	default:
		return fmt.Errorf("unknown op kind %q", op.Kind)
	}
	return nil
}

func (r *Replayer) track(ref int, ptr uint64, size uint64) {
	buf := r.alloc.Bytes(ptr, size)
	fillPattern(buf, ref)
	r.live.Set(ref, liveBlock{
		ptr:  ptr,
		size: size,
		sum:  xxh3.Hash(buf),
	})

	r.liveBytes += size
	if r.liveBytes > r.result.PeakLive {
		r.result.PeakLive = r.liveBytes
	}
}

func (r *Replayer) verifyPayload(block liveBlock) error {
	if sum := xxh3.Hash(r.alloc.Bytes(block.ptr, block.size)); sum != block.sum {
		return fmt.Errorf("payload checksum mismatch: got %x, want %x", sum, block.sum)
	}
	return nil
}

func fillPattern(buf []byte, ref int) {
	pattern := xxh3.HashString(strconv.Itoa(ref))
	for i := range buf {
		buf[i] = byte(pattern >> ((i % 8) * 8))
	}
}

func checkPattern(buf []byte, ref int) error {
	pattern := xxh3.HashString(strconv.Itoa(ref))
	for i := range buf {
		want := byte(pattern >> ((i % 8) * 8))
		if buf[i] != want {
			return fmt.Errorf("payload prefix lost at byte %d", i)
		}
	}
	return nil
}

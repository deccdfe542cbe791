package trace

import (
	"github.com/brianvoe/gofakeit/v6"
	"github.com/bytedance/sonic"
)

// Op kinds.
const (
	OpAlloc   = "alloc"
	OpFree    = "free"
	OpRealloc = "realloc"
)

// Op is one allocator call. Ref names the allocation a free or realloc
// refers to; refs are assigned by the alloc ops in order of appearance.
type Op struct {
	Kind string `json:"op"`
	Ref  int    `json:"ref"`
	Size uint64 `json:"size,omitempty"`
}

// Trace ...
type Trace struct {
	Name string `json:"name"`
	Ops  []Op   `json:"ops"`
}

// Decode ...
func Decode(data []byte) (*Trace, error) {
	var t Trace
	if err := sonic.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Encode ...
func (t *Trace) Encode() ([]byte, error) {
	return sonic.Marshal(t)
}

// Generate builds a well-formed random workload: roughly 60% allocs,
// 25% frees and 15% reallocs, always against live refs. A small share
// of the reallocs resize to zero, which releases the ref.
func Generate(name string, numOps int, maxSize int, seed int64) *Trace {
	faker := gofakeit.New(seed)

	ops := make([]Op, 0, numOps)
	var live []int
	nextRef := 0

	for len(ops) < numOps {
		roll := faker.Number(0, 99)
		switch {
		case roll < 60 || len(live) == 0:
			ops = append(ops, Op{
				Kind: OpAlloc,
				Ref:  nextRef,
				Size: uint64(faker.Number(1, maxSize)),
			})
			live = append(live, nextRef)
			nextRef++

		case roll < 85:
			i := faker.Number(0, len(live)-1)
			ops = append(ops, Op{Kind: OpFree, Ref: live[i]})
			live = append(live[:i], live[i+1:]...)

		default:
			i := faker.Number(0, len(live)-1)
			op := Op{
				Kind: OpRealloc,
				Ref:  live[i],
				Size: uint64(faker.Number(1, maxSize)),
			}
			if faker.Number(0, 9) == 0 {
				op.Size = 0
				live = append(live[:i], live[i+1:]...)
			}
			ops = append(ops, op)
		}
	}

	return &Trace{Name: name, Ops: ops}
}

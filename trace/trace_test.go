package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := &Trace{
		Name: "round-trip",
		Ops: []Op{
			{Kind: OpAlloc, Ref: 0, Size: 16},
			{Kind: OpAlloc, Ref: 1, Size: 512},
			{Kind: OpRealloc, Ref: 0, Size: 64},
			{Kind: OpFree, Ref: 1},
			{Kind: OpFree, Ref: 0},
		},
	}

	data, err := original.Encode()
	assert.Nil(t, err)

	decoded, err := Decode(data)
	assert.Nil(t, err)
	assert.Equal(t, original, decoded)
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.NotNil(t, err)
}

func TestGenerateWellFormed(t *testing.T) {
	tr := Generate("random", 500, 1024, 42)
	assert.Equal(t, 500, len(tr.Ops))

	live := map[int]bool{}
	for _, op := range tr.Ops {
		switch op.Kind {
		case OpAlloc:
			assert.False(t, live[op.Ref])
			assert.True(t, op.Size >= 1)
			assert.True(t, op.Size <= 1024)
			live[op.Ref] = true
		case OpFree:
			assert.True(t, live[op.Ref])
			delete(live, op.Ref)
		case OpRealloc:
			assert.True(t, live[op.Ref])
			assert.True(t, op.Size <= 1024)
			if op.Size == 0 {
				// a zero-size realloc releases the ref
				delete(live, op.Ref)
			}
		default:
			t.Fatalf("unknown op kind %q", op.Kind)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	t1 := Generate("seeded", 200, 256, 7)
	t2 := Generate("seeded", 200, 256, 7)
	assert.Equal(t, t1, t2)
}

//go:build unix

package heap

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestMapRegion(t *testing.T) {
	r, err := NewMapRegion(1 << 16)
	assert.Nil(t, err)
	defer func() {
		assert.Nil(t, r.Close())
	}()

	base := r.Base()

	old, ok := r.Extend(4096)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), old)
	assert.Equal(t, uint64(4096), r.Size())
	assert.Equal(t, base, r.Base())

	buf := unsafe.Slice((*byte)(r.Base()), 4096)
	buf[0] = 0xab
	buf[4095] = 0xcd
	assert.Equal(t, byte(0xab), buf[0])
	assert.Equal(t, byte(0xcd), buf[4095])

	_, ok = r.Extend(1 << 16)
	assert.False(t, ok)

	_, ok = r.Extend(math.MaxUint64)
	assert.False(t, ok)
	assert.Equal(t, uint64(4096), r.Size())
}

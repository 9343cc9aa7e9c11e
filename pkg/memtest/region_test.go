package memtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionReadWrite(t *testing.T) {
	t.Parallel()

	r := NewRegion(make([]uint64, 8))

	r.Write(3, 0xDEADBEEF)
	assert.Equal(t, uint64(0xDEADBEEF), r.Read(3))
	assert.Equal(t, uint64(0), r.Read(0))
}

func TestRegionFillBytes(t *testing.T) {
	t.Parallel()

	r := NewRegion(make([]uint64, 4))
	r.FillBytes(0xFF)

	for i := 0; i < r.Len(); i++ {
		assert.Equal(t, allOnes, r.Read(i))
	}

	r.FillBytes(0x55)
	for i := 0; i < r.Len(); i++ {
		assert.Equal(t, checkerPattern, r.Read(i))
	}
}

func TestRegionSplitAtIsDisjoint(t *testing.T) {
	t.Parallel()

	r := NewRegion(make([]uint64, 10))

	first, second := r.SplitAt(4)
	require.Equal(t, 4, first.Len())
	require.Equal(t, 6, second.Len())

	first.Write(0, 111)
	second.Write(0, 222)

	assert.Equal(t, uint64(111), r.Read(0))
	assert.Equal(t, uint64(222), r.Read(4))
}

func TestRegionSliceIsDisjoint(t *testing.T) {
	t.Parallel()

	r := NewRegion(make([]uint64, 10))

	a := r.Slice(0, 5)
	b := r.Slice(5, 10)

	a.Write(4, 1)
	b.Write(0, 2)

	assert.Equal(t, uint64(1), r.Read(4))
	assert.Equal(t, uint64(2), r.Read(5))
}

func TestRegionAddressOfIsStableAndUnique(t *testing.T) {
	t.Parallel()

	r := NewRegion(make([]uint64, 4))

	addrs := make(map[uint64]bool)
	for i := 0; i < r.Len(); i++ {
		a := r.AddressOf(i)
		assert.False(t, addrs[a], "address collision at index %d", i)
		addrs[a] = true
		assert.Equal(t, a, r.AddressOf(i), "address must be stable across calls")
	}
}

func TestRegionSnapshot(t *testing.T) {
	t.Parallel()

	r := NewRegion([]uint64{1, 2, 3})
	snap := r.Snapshot()
	require.Equal(t, []uint64{1, 2, 3}, snap)

	r.Write(0, 99)
	assert.Equal(t, []uint64{1, 2, 3}, snap, "snapshot must not alias live storage")
}

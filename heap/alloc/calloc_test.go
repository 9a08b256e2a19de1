package alloc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCalloc_ZeroesReusedBlock verifies stale bytes do not leak through a
// reused block.
func TestCalloc_ZeroesReusedBlock(t *testing.T) {
	a, _ := newTestAllocator(t)

	p, err := a.Malloc(96)
	require.NoError(t, err)
	fill(p[:cap(p)], 0xFF)
	a.Free(p)

	q, err := a.Calloc(12, 8)
	require.NoError(t, err)
	require.Equal(t, addr(p), addr(q), "expected the freed block back")
	require.Len(t, q, 96)
	for i, b := range q {
		require.Zero(t, b, "byte %d not cleared", i)
	}
	assert.Equal(t, 1, a.Stats().CallocCalls)
	assert.Equal(t, 0, a.Stats().MallocCalls)
}

func TestCalloc_Overflow(t *testing.T) {
	a, _ := newTestAllocator(t)
	before := a.HeapSize()
	growCount := setupGrowCounter(a)

	for _, tc := range []struct{ count, size int }{
		{math.MaxInt, 2},
		{2, math.MaxInt},
		{math.MaxInt/2 + 1, 2},
		{math.MaxInt/3 + 1, 3},
	} {
		_, err := a.Calloc(tc.count, tc.size)
		require.ErrorIs(t, err, ErrOverflow, "Calloc(%d, %d)", tc.count, tc.size)
	}
	assert.Equal(t, 0, *growCount)
	assert.Equal(t, before, a.HeapSize())
}

func TestCalloc_TooLargeButRepresentable(t *testing.T) {
	a, _ := newTestAllocator(t)
	_, err := a.Calloc(math.MaxInt/2, 2)
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestCalloc_Negative(t *testing.T) {
	a, _ := newTestAllocator(t)
	_, err := a.Calloc(-1, 8)
	require.ErrorIs(t, err, ErrNegativeSize)
	_, err = a.Calloc(8, -1)
	require.ErrorIs(t, err, ErrNegativeSize)
}

func TestCalloc_ZeroProduct(t *testing.T) {
	a, _ := newTestAllocator(t)
	for _, tc := range []struct{ count, size int }{{0, 8}, {8, 0}, {0, math.MaxInt}} {
		p, err := a.Calloc(tc.count, tc.size)
		require.NoError(t, err)
		assert.Nil(t, p)
	}
}

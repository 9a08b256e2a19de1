package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/format"
)

// TestGrow_AlignmentAcrossSkews starts the break at every phase of the
// alignment unit and checks payload alignment and the slack rule.
func TestGrow_AlignmentAcrossSkews(t *testing.T) {
	var folded, padded int
	for skew := range format.Alignment {
		h := newTestHeap(t, 1<<16, skew)
		a, err := New(h, &Config{Checks: ChecksOn})
		require.NoError(t, err, "skew %d", skew)

		for _, n := range []int{1, 8, 9, 24, 100, 1000} {
			brk := h.Break()
			pad := format.HeaderPad(h.Addr(brk))
			need, _ := format.BlockSize(n)
			padBefore := a.Stats().PaddingBytes

			p, err := a.Malloc(n)
			require.NoError(t, err, "skew %d Malloc(%d)", skew, n)
			requireAligned(t, p)
			assert.Equal(t, brk+need+format.Alignment, h.Break(), "heap grows by need+16")

			if pad == 0 {
				folded++
				assert.Equal(t, need+format.Alignment-format.HeaderSize, cap(p), "slack folded into block")
				assert.Equal(t, padBefore, a.Stats().PaddingBytes)
				assert.Equal(t, addr(p), h.Addr(brk+format.HeaderSize))
			} else {
				padded++
				assert.Equal(t, need-format.HeaderSize, cap(p), "block is exactly need")
				assert.Equal(t, padBefore+format.Alignment, a.Stats().PaddingBytes)
				assert.Equal(t, addr(p), h.Addr(brk+pad+format.HeaderSize))
			}
		}
		assert.Equal(t, h.Size(), a.HeapSize())
		assertInvariants(t, a)
	}
	assert.Positive(t, folded, "no skew produced a folded growth")
	assert.Positive(t, padded, "no skew produced a padded growth")
}

// TestGrow_PhaseIsStable verifies every growth after the sentinel takes the
// same branch, since a folded block keeps the break's phase and a padded
// one shifts it by a whole alignment unit.
func TestGrow_PhaseIsStable(t *testing.T) {
	for skew := range format.Alignment {
		h := newTestHeap(t, 1<<16, skew)
		a, err := New(h, &Config{Checks: ChecksOff})
		require.NoError(t, err)

		for n := 1; n < 200; n += 13 {
			_, err := a.Malloc(n)
			require.NoError(t, err)
		}
		s := a.Stats()
		assert.True(t, s.FoldedGrows == 0 || s.PaddedGrows == 0,
			"skew %d: folded=%d padded=%d", skew, s.FoldedGrows, s.PaddedGrows)
		assert.Equal(t, s.GrowCalls+1, s.FoldedGrows+s.PaddedGrows, "sentinel counts as a growth")
	}
}

func TestGrow_HookSeesNeed(t *testing.T) {
	a, _ := newTestAllocator(t)

	var needs []int
	a.onGrow = func(need int) { needs = append(needs, need) }

	_, err := a.Malloc(100)
	require.NoError(t, err)
	_, err = a.Malloc(1)
	require.NoError(t, err)
	assert.Equal(t, []int{112, 16}, needs)
}

// TestGrow_OSBacking runs the allocator on an OS reservation, whose base is
// page aligned, so skew 8 folds and skew 0 pads.
func TestGrow_OSBacking(t *testing.T) {
	for _, tc := range []struct {
		skew   int
		folded bool
	}{
		{0, false},
		{8, true},
	} {
		h, err := heap.Open(&heap.Config{MaxSize: 1 << 20, Skew: tc.skew, Backing: heap.BackingOS})
		require.NoError(t, err)
		t.Cleanup(func() { _ = h.Close() })

		a, err := New(h, &Config{Checks: ChecksOn})
		require.NoError(t, err)

		p, err := a.Malloc(4000)
		require.NoError(t, err)
		requireAligned(t, p)
		fill(p, 0xAB)

		s := a.Stats()
		if tc.folded {
			assert.Zero(t, s.PaddedGrows)
			assert.Zero(t, s.PaddingBytes)
		} else {
			assert.Zero(t, s.FoldedGrows)
			assert.Equal(t, 2*format.Alignment, s.PaddingBytes)
		}
		a.Free(p)
		assertInvariants(t, a)
	}
}

package alloc

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/verify"
)

func TestChecks_DoubleFreePanicsByDefault(t *testing.T) {
	a, _ := newTestAllocator(t)

	p, err := a.Malloc(32)
	require.NoError(t, err)
	a.Free(p)

	require.Panics(t, func() { a.Free(p) })
}

func TestChecks_DoubleFree(t *testing.T) {
	a, rec := newRecordingAllocator(t)

	p, err := a.Malloc(32)
	require.NoError(t, err)
	a.Free(p)
	a.Free(p)

	require.Len(t, rec.errs, 1)
	requireViolation(t, rec.errs[0], verify.TypeState)

	// The list is unchanged by the rejected call.
	blocks, err := a.FreeBlocks()
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}

// TestChecks_DoubleFreeWithoutChecks verifies the state tag is enforced
// even when the full checker is off.
func TestChecks_DoubleFreeWithoutChecks(t *testing.T) {
	rec := &fatalRecorder{}
	a, err := New(newTestHeap(t, testHeapSize, 0), &Config{Checks: ChecksOff, OnFatal: rec.record})
	require.NoError(t, err)
	require.Nil(t, a.ledger)

	p, err := a.Malloc(32)
	require.NoError(t, err)
	a.Free(p)
	a.Free(p)

	require.Len(t, rec.errs, 1)
	requireViolation(t, rec.errs[0], verify.TypeState)
}

func TestChecks_ForeignPointer(t *testing.T) {
	a, rec := newRecordingAllocator(t)

	a.Free(make([]byte, 64))
	require.Len(t, rec.errs, 1)
	requireViolation(t, rec.errs[0], verify.TypeOwnership)

	_, err := a.Realloc(make([]byte, 64), 128)
	require.ErrorIs(t, err, ErrBadPointer)
	require.Len(t, rec.errs, 2)
}

func TestChecks_SentinelPointer(t *testing.T) {
	a, rec := newRecordingAllocator(t)

	off := a.sentinel + 8
	a.Free(a.mem[off : off+8])
	require.Len(t, rec.errs, 1)
	requireViolation(t, rec.errs[0], verify.TypeOwnership)
}

func TestChecks_InteriorPointer(t *testing.T) {
	a, rec := newRecordingAllocator(t)

	p, err := a.Malloc(64)
	require.NoError(t, err)

	// Aligned but not the start of a block.
	a.Free(p[16:])
	require.Len(t, rec.errs, 1)
	requireViolation(t, rec.errs[0], verify.TypeOwnership)

	// Misaligned.
	a.Free(p[8:])
	require.Len(t, rec.errs, 2)
	requireViolation(t, rec.errs[1], verify.TypeAlignment)

	// The real block is still live and frees cleanly.
	a.Free(p)
	assert.Len(t, rec.errs, 2)
	assertInvariants(t, a)
}

// TestChecks_CorruptLinkDetected overwrites a free block's link through a
// stale slice and expects the next mutation to report it.
func TestChecks_CorruptLinkDetected(t *testing.T) {
	a, rec := newRecordingAllocator(t)

	p, err := a.Malloc(32)
	require.NoError(t, err)
	q, err := a.Malloc(32)
	require.NoError(t, err)
	a.Free(p)
	binary.LittleEndian.PutUint64(p[:8], 1<<40)

	_, err = a.FreeBlocks()
	requireViolation(t, err, verify.TypeFreeList)

	a.Free(q)
	require.Len(t, rec.errs, 1)
	verr := requireViolation(t, rec.errs[0], verify.TypeFreeList)
	assert.Contains(t, verr.Message, "outside the heap")
}

// TestChecks_CorruptHeaderDetected flips a live block's size and expects the
// ledger to notice once the block is freed.
func TestChecks_CorruptHeaderDetected(t *testing.T) {
	a, rec := newRecordingAllocator(t)

	p, err := a.Malloc(64)
	require.NoError(t, err)
	off, ok := a.h.Offset(p)
	require.True(t, ok)
	hdr := a.mem[off-8:]
	size := binary.LittleEndian.Uint64(hdr)
	binary.LittleEndian.PutUint64(hdr, size-16)

	a.Free(p)
	require.Len(t, rec.errs, 1)
	requireViolation(t, rec.errs[0], verify.TypeOwnership)
}

func TestChecks_FatalHandlerReceivesWrappedError(t *testing.T) {
	a, rec := newRecordingAllocator(t)

	p, err := a.Malloc(16)
	require.NoError(t, err)
	q, err := a.Malloc(16)
	require.NoError(t, err)
	a.Free(p)
	binary.LittleEndian.PutUint64(p[:8], 3)
	a.Free(q)

	require.NotEmpty(t, rec.errs)
	var verr *verify.ValidationError
	require.True(t, errors.As(rec.errs[0], &verr))
	assert.Contains(t, rec.errs[0].Error(), "after free")
}

func TestChecks_DefaultMode(t *testing.T) {
	cfg := Config{}
	assert.Equal(t, debugBuild || envDebug, cfg.checksEnabled())

	cfg.Checks = ChecksOn
	assert.True(t, cfg.checksEnabled())
	cfg.Checks = ChecksOff
	assert.False(t, cfg.checksEnabled())
}

func TestParseCheckMode(t *testing.T) {
	for in, want := range map[string]CheckMode{
		"":        ChecksDefault,
		"default": ChecksDefault,
		"on":      ChecksOn,
		"true":    ChecksOn,
		"off":     ChecksOff,
		"0":       ChecksOff,
	} {
		got, err := ParseCheckMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		if in != "" && in != "true" && in != "0" {
			assert.Equal(t, in, got.String())
		}
	}
	_, err := ParseCheckMode("sometimes")
	require.Error(t, err)
}

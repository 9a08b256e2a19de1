package alloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/verify"
	"github.com/joshuapare/heapkit/internal/format"
)

const testHeapSize = 1 << 20

// fatalRecorder collects violations instead of panicking.
type fatalRecorder struct {
	errs []error
}

func (r *fatalRecorder) record(err error) { r.errs = append(r.errs, err) }

func newTestHeap(t testing.TB, size, skew int) *heap.Heap {
	t.Helper()
	h, err := heap.Open(&heap.Config{MaxSize: size, Skew: skew, Backing: heap.BackingMemory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

// newTestAllocator returns a checked allocator on a fresh in-memory heap.
func newTestAllocator(t testing.TB) (*Allocator, *heap.Heap) {
	t.Helper()
	h := newTestHeap(t, testHeapSize, 0)
	a, err := New(h, &Config{Checks: ChecksOn})
	require.NoError(t, err)
	return a, h
}

// newRecordingAllocator returns a checked allocator whose violations are
// recorded rather than fatal.
func newRecordingAllocator(t testing.TB) (*Allocator, *fatalRecorder) {
	t.Helper()
	rec := &fatalRecorder{}
	h := newTestHeap(t, testHeapSize, 0)
	a, err := New(h, &Config{Checks: ChecksOn, OnFatal: rec.record})
	require.NoError(t, err)
	return a, rec
}

func setupGrowCounter(a *Allocator) *int {
	growCount := 0
	a.onGrow = func(int) { growCount++ }
	return &growCount
}

func addr(p []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(p)))
}

func requireAligned(t testing.TB, p []byte) {
	t.Helper()
	require.Zero(t, addr(p)%format.Alignment, "payload at 0x%X not aligned", addr(p))
}

func fill(p []byte, v byte) {
	for i := range p {
		p[i] = v
	}
}

// assertInvariants runs every heap check against a's current state.
func assertInvariants(t testing.TB, a *Allocator) {
	t.Helper()
	require.NotNil(t, a.ledger, "invariants need checks enabled")
	require.NoError(t, verify.AllInvariants(a.h, a.sentinel, a.ledger))
}

func requireViolation(t testing.TB, err error, typ string) *verify.ValidationError {
	t.Helper()
	var verr *verify.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, typ, verr.Type, "violation: %v", err)
	return verr
}

package malloc

import (
	"bytes"
	"log/slog"
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAllocator(t *testing.T, opts *Options) *Allocator {
	t.Helper()
	m, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestNew_Defaults(t *testing.T) {
	m := newTestAllocator(t, nil)

	p, err := m.Malloc(64)
	require.NoError(t, err)
	require.Len(t, p, 64)
	assert.Zero(t, uintptr(unsafe.Pointer(&p[0]))%16)
	assert.GreaterOrEqual(t, m.Reserved(), 1<<30)
	m.Free(p)
}

func TestNew_BadOptions(t *testing.T) {
	_, err := New(&Options{MaxSize: -1})
	require.Error(t, err)

	_, err = New(&Options{MaxSize: 4096, Skew: 4096})
	require.Error(t, err)
}

func TestAllocator_Lifecycle(t *testing.T) {
	var logs bytes.Buffer
	m := newTestAllocator(t, &Options{
		MaxSize: 1 << 20,
		Backing: BackingMemory,
		Checks:  ChecksOn,
		Logger:  slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})

	p, err := m.Calloc(4, 16)
	require.NoError(t, err)
	copy(p, "heapkit")

	p, err = m.Realloc(p, 256)
	require.NoError(t, err)
	assert.Equal(t, "heapkit", string(p[:7]))
	m.Free(p)

	s := m.Stats()
	assert.Equal(t, 1, s.CallocCalls)
	assert.Equal(t, 1, s.ReallocCalls)
	assert.Equal(t, 1, s.FreeCalls)
	assert.Contains(t, logs.String(), "msg=realloc")

	require.NoError(t, m.Close())
	_, err = m.Malloc(1 << 16)
	require.ErrorIs(t, err, ErrClosed)
	require.NoError(t, m.Close())
}

func TestAllocator_Exhaustion(t *testing.T) {
	m := newTestAllocator(t, &Options{MaxSize: 4096, Backing: BackingMemory})

	_, err := m.Malloc(m.Reserved())
	require.ErrorIs(t, err, ErrNoMemory)

	_, err = m.Calloc(math.MaxInt/2, 4)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestAllocator_FatalHandler(t *testing.T) {
	var got []error
	m := newTestAllocator(t, &Options{
		Backing: BackingMemory,
		MaxSize: 1 << 16,
		Checks:  ChecksOn,
		OnFatal: func(err error) { got = append(got, err) },
	})

	p, err := m.Malloc(8)
	require.NoError(t, err)
	m.Free(p)
	m.Free(p)
	require.Len(t, got, 1)
}

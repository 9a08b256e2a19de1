package alloc

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/block"
	"github.com/joshuapare/heapkit/heap/verify"
	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// Allocator is a first-fit, LIFO free-list allocator over a heap.Heap.
// It must be the only user of the heap's break.
type Allocator struct {
	h   *heap.Heap
	mem []byte // heap contents up to the break, refreshed after each grow

	sentinel int // header offset of the free-list sentinel

	checks  bool
	ledger  *verify.Ledger // nil unless checks
	fatal   func(error)
	log     *slog.Logger
	tracing bool

	stats Stats

	// onGrow is called with the block size before the heap grows for a block.
	onGrow func(need int)
}

// New creates an allocator on h and carves its sentinel. A nil cfg uses
// DefaultConfig.
func New(h *heap.Heap, cfg *Config) (*Allocator, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: nil heap", heap.ErrBadConfig)
	}
	if cfg == nil {
		cfg = &DefaultConfig
	}

	a := &Allocator{
		h:      h,
		mem:    h.Bytes(),
		checks: cfg.checksEnabled(),
		fatal:  cfg.OnFatal,
		log:    cfg.logger(),
	}
	if a.fatal == nil {
		a.fatal = Panic
	}
	a.tracing = a.log.Enabled(traceCtx, slog.LevelDebug)
	if a.checks {
		a.ledger = &verify.Ledger{HeapStart: h.Break(), Blocks: make(map[int]int)}
	}

	off, size, err := a.carve(format.MinBlockSize)
	if err != nil {
		return nil, fmt.Errorf("alloc: sentinel: %w", err)
	}
	block.Format(a.mem, off, 0).SetNext(off)
	a.sentinel = off
	if a.checks {
		a.ledger.Sentinel = verify.Extent{Off: off, Size: size}
	}

	a.trace("init", slog.Int("sentinel", off), slog.Int("footprint", size), slog.Bool("checks", a.checks))
	a.verify("init")
	return a, nil
}

// Malloc returns a slice of n bytes backed by a block of at least n+8
// bytes. The contents are unspecified. Malloc(0) returns nil.
func (a *Allocator) Malloc(n int) ([]byte, error) {
	a.stats.MallocCalls++
	return a.malloc(n)
}

func (a *Allocator) malloc(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeSize, n)
	}
	if n == 0 {
		return nil, nil
	}
	need, ok := format.BlockSize(n)
	if !ok {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, n)
	}
	if a.h.Cap() == 0 {
		return nil, fmt.Errorf("alloc: %w", heap.ErrClosed)
	}

	u, err := a.take(need)
	if err != nil {
		a.trace("malloc failed", slog.Int("n", n), slog.Any("err", err))
		return nil, err
	}
	if a.checks {
		if err := verify.Payload(a.h, u.Off()); err != nil {
			a.fail(err)
		}
	}

	a.stats.LiveBlocks++
	a.stats.LiveBytes += u.Size()
	a.stats.PeakLiveBytes = max(a.stats.PeakLiveBytes, a.stats.LiveBytes)

	a.trace("malloc", slog.Int("n", n), slog.Int("need", need), slog.Int("block", u.Off()), slog.Int("size", u.Size()))
	a.verify("malloc")
	return u.Payload(n), nil
}

// Calloc returns count*size zeroed bytes. A product that overflows int
// fails with ErrOverflow before any memory is touched.
func (a *Allocator) Calloc(count, size int) ([]byte, error) {
	a.stats.CallocCalls++
	if count < 0 || size < 0 {
		return nil, fmt.Errorf("%w: count %d, size %d", ErrNegativeSize, count, size)
	}
	total, ok := buf.MulOverflowSafe(count, size)
	if !ok {
		return nil, fmt.Errorf("%w: %d * %d", ErrOverflow, count, size)
	}
	p, err := a.malloc(total)
	if err != nil {
		return nil, err
	}
	clear(p)
	a.trace("calloc", slog.Int("count", count), slog.Int("size", size))
	return p, nil
}

// Realloc moves p into a new block of n bytes and frees the old one. The
// first min(cap(p), n) bytes are preserved. A nil p behaves like Malloc(n);
// n == 0 frees p and returns nil. If the new block cannot be obtained the
// error is returned and p is left allocated and unchanged.
func (a *Allocator) Realloc(p []byte, n int) ([]byte, error) {
	a.stats.ReallocCalls++
	if p == nil {
		return a.malloc(n)
	}
	old, ok := a.resolve(p, "realloc")
	if !ok {
		return nil, ErrBadPointer
	}

	q, err := a.malloc(n)
	if err != nil {
		return nil, err
	}
	copy(q, old.Payload(old.Capacity()))

	a.trace("realloc", slog.Int("from", old.Off()), slog.Int("n", n))
	a.release(old)
	a.verify("realloc")
	return q, nil
}

// Free returns p's block to the front of the free list. Free(nil) is a
// no-op. p must be a slice returned by this allocator, possibly resliced
// to a shorter length, and not yet freed.
func (a *Allocator) Free(p []byte) {
	if p == nil {
		return
	}
	a.stats.FreeCalls++
	u, ok := a.resolve(p, "free")
	if !ok {
		return
	}
	a.release(u)
	a.trace("free", slog.Int("block", u.Off()), slog.Int("size", u.Size()))
	a.verify("free")
}

// HeapSize returns the cumulative number of bytes obtained from the heap,
// sentinel and alignment padding included.
func (a *Allocator) HeapSize() int {
	return a.stats.HeapBytes
}

// resolve maps a payload slice back to its allocated block.
func (a *Allocator) resolve(p []byte, op string) (block.Used, bool) {
	off, ok := a.h.Offset(p)
	if !ok {
		a.fail(&verify.ValidationError{
			Type:    verify.TypeOwnership,
			Message: op + " of a pointer outside the heap",
			Offset:  -1,
		})
		return block.Used{}, false
	}
	hdr := off - format.HeaderSize
	if hdr < a.sentinel+format.MinBlockSize {
		a.fail(&verify.ValidationError{
			Type:    verify.TypeOwnership,
			Message: op + " of a pointer below the first block",
			Offset:  off,
		})
		return block.Used{}, false
	}

	if a.checks {
		if err := verify.Payload(a.h, hdr); err != nil {
			a.fail(fmt.Errorf("alloc: %s: %w", op, err))
			return block.Used{}, false
		}
		if _, carved := a.ledger.Blocks[hdr]; !carved {
			a.fail(&verify.ValidationError{
				Type:    verify.TypeOwnership,
				Message: op + " of a pointer that is not the start of a block",
				Offset:  hdr,
			})
			return block.Used{}, false
		}
	}

	u, ok := block.At(a.mem, hdr).Used()
	if !ok {
		a.fail(&verify.ValidationError{
			Type:    verify.TypeState,
			Message: op + " of a block that is already free",
			Offset:  hdr,
		})
		return block.Used{}, false
	}
	return u, true
}

func (a *Allocator) release(u block.Used) {
	a.push(u.Release())
	a.stats.LiveBlocks--
	a.stats.LiveBytes -= u.Size()
}

// freeAt returns the free view of the block at off. Reaching an allocated
// block through the list is fatal.
func (a *Allocator) freeAt(off int) (block.Free, bool) {
	f, ok := block.At(a.mem, off).Free()
	if !ok {
		a.fail(&verify.ValidationError{
			Type:    verify.TypeState,
			Message: "allocated block reached through the free list",
			Offset:  off,
		})
	}
	return f, ok
}

// push links f in directly after the sentinel.
func (a *Allocator) push(f block.Free) {
	sent, _ := a.freeAt(a.sentinel)
	f.SetNext(sent.Next())
	sent.SetNext(f.Off())
}

// take unlinks and allocates the first free block of at least need bytes,
// growing the heap by one block if the list has none.
func (a *Allocator) take(need int) (block.Used, error) {
	for grown := false; ; grown = true {
		prev, ok := a.freeAt(a.sentinel)
		if !ok {
			return block.Used{}, ErrCorrupt
		}
		for next := prev.Next(); next != a.sentinel; next = prev.Next() {
			cur, ok := a.freeAt(next)
			if !ok {
				return block.Used{}, ErrCorrupt
			}
			a.stats.ScanSteps++
			if cur.Size() >= need {
				prev.SetNext(cur.Next())
				return cur.Allocate(), nil
			}
			prev = cur
		}

		if grown {
			a.fail(&verify.ValidationError{
				Type:    verify.TypeFreeList,
				Message: fmt.Sprintf("block of %d bytes not found after growing", need),
				Offset:  a.sentinel,
			})
			return block.Used{}, ErrCorrupt
		}
		if err := a.grow(need); err != nil {
			return block.Used{}, err
		}
	}
}

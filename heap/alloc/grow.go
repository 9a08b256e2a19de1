package alloc

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/heapkit/heap/block"
	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// grow extends the heap by one free block of at least need bytes and pushes
// it onto the free list.
func (a *Allocator) grow(need int) error {
	if a.onGrow != nil {
		a.onGrow(need)
	}
	off, size, err := a.carve(need)
	if err != nil {
		return err
	}
	a.stats.GrowCalls++
	if a.checks {
		a.ledger.Blocks[off] = size
	}
	a.push(block.Format(a.mem, off, size))
	a.trace("grow", slog.Int("need", need), slog.Int("block", off), slog.Int("size", size))
	return nil
}

// carve obtains need+Alignment bytes from the heap and places a block header
// at the first offset whose payload is 16-byte aligned. When the old break
// is already such an offset the whole increment becomes the block;
// otherwise the block starts pad bytes in and is exactly need bytes, and
// the rest of the increment is abandoned.
func (a *Allocator) carve(need int) (off, size int, err error) {
	incr, ok := buf.AddOverflowSafe(need, format.Alignment)
	if !ok {
		return 0, 0, fmt.Errorf("%w: block of %d bytes", ErrTooLarge, need)
	}
	base, err := a.h.Sbrk(incr)
	if err != nil {
		return 0, 0, fmt.Errorf("alloc: grow heap by %d bytes: %w", incr, err)
	}
	a.mem = a.h.Bytes()
	a.stats.HeapBytes += incr

	off, size = base, incr
	if pad := format.HeaderPad(a.h.Addr(base)); pad != 0 {
		off, size = base+pad, need
		a.stats.PaddedGrows++
		a.stats.PaddingBytes += incr - need
	} else {
		a.stats.FoldedGrows++
	}

	if a.checks {
		a.ledger.HeapBytes = a.stats.HeapBytes
		a.ledger.PaddingBytes = a.stats.PaddingBytes
	}
	return off, size, nil
}

package alloc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joshuapare/heapkit/heap/verify"
)

// Stats holds allocator counters.
type Stats struct {
	MallocCalls  int
	CallocCalls  int
	ReallocCalls int
	FreeCalls    int

	GrowCalls   int // heap growths for blocks, the sentinel excluded
	FoldedGrows int // growths whose alignment slack went into the block
	PaddedGrows int // growths that moved the header and abandoned bytes

	HeapBytes    int // bytes obtained from the heap
	PaddingBytes int // bytes abandoned by alignment correction
	ScanSteps    int // free blocks examined by first-fit scans

	LiveBlocks    int
	LiveBytes     int // header-inclusive size of allocated blocks
	PeakLiveBytes int
}

// Stats returns a snapshot of the counters.
func (a *Allocator) Stats() Stats {
	return a.stats
}

// FreeBlocks returns the free list in scan order, sentinel excluded. The
// list is validated while it is walked.
func (a *Allocator) FreeBlocks() ([]verify.Extent, error) {
	return verify.FreeList(a.h, a.sentinel)
}

// DumpFreeList writes the free list to w, one block per line.
func (a *Allocator) DumpFreeList(w io.Writer) error {
	blocks, err := a.FreeBlocks()
	if err != nil {
		return err
	}
	total := 0
	for _, b := range blocks {
		total += b.Size
	}
	fmt.Fprintf(w, "=== FREE LIST (sentinel=0x%X) ===\n", a.sentinel)
	for i, b := range blocks {
		fmt.Fprintf(w, "  [%d] off=0x%X size=%d\n", i, b.Off, b.Size)
	}
	_, err = fmt.Fprintf(w, "Total: %d free blocks, %d bytes free\n", len(blocks), total)
	return err
}

// PrintStats writes the counters to w.
func (a *Allocator) PrintStats(w io.Writer) {
	s := a.stats
	fmt.Fprintf(w, "=== ALLOCATOR STATISTICS ===\n")
	fmt.Fprintf(w, "Malloc calls:       %d\n", s.MallocCalls)
	fmt.Fprintf(w, "Calloc calls:       %d\n", s.CallocCalls)
	fmt.Fprintf(w, "Realloc calls:      %d\n", s.ReallocCalls)
	fmt.Fprintf(w, "Free calls:         %d\n", s.FreeCalls)
	fmt.Fprintf(w, "Heap growths:       %d (folded=%d padded=%d)\n", s.GrowCalls, s.FoldedGrows, s.PaddedGrows)
	fmt.Fprintf(w, "Heap bytes:         %d\n", s.HeapBytes)
	fmt.Fprintf(w, "Padding bytes:      %d\n", s.PaddingBytes)
	fmt.Fprintf(w, "Scan steps:         %d\n", s.ScanSteps)
	fmt.Fprintf(w, "Live blocks:        %d (%d bytes, peak %d)\n", s.LiveBlocks, s.LiveBytes, s.PeakLiveBytes)
}

var traceCtx = context.Background()

// maxTraceBlocks bounds the free-list listing attached to each trace.
const maxTraceBlocks = 32

// trace logs op at debug level, followed by the current free list.
func (a *Allocator) trace(op string, attrs ...slog.Attr) {
	if !a.tracing {
		return
	}
	attrs = append(attrs, slog.Any("free", freeListValue{a}))
	a.log.LogAttrs(traceCtx, slog.LevelDebug, op, attrs...)
}

// freeListValue renders the free list lazily, only when a handler keeps
// the record.
type freeListValue struct{ a *Allocator }

func (v freeListValue) LogValue() slog.Value {
	blocks, err := v.a.FreeBlocks()
	if err != nil {
		return slog.StringValue("invalid: " + err.Error())
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for i, b := range blocks {
		if i == maxTraceBlocks {
			sb.WriteString(" ... +")
			sb.WriteString(strconv.Itoa(len(blocks) - i))
			break
		}
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(b.Off))
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(b.Size))
	}
	sb.WriteByte(']')
	return slog.StringValue(sb.String())
}

// verify runs every heap invariant when checks are enabled.
func (a *Allocator) verify(op string) {
	if !a.checks {
		return
	}
	if err := verify.AllInvariants(a.h, a.sentinel, a.ledger); err != nil {
		a.fail(fmt.Errorf("alloc: after %s: %w", op, err))
	}
}

// fail logs a violated invariant and hands it to the fatal handler.
func (a *Allocator) fail(err error) {
	a.log.Error("heap invariant violated", slog.Any("err", err))
	a.fatal(err)
}

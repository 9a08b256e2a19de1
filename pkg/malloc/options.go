package malloc

import (
	"log/slog"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/alloc"
)

// Options controls how New builds the heap and the allocator.
type Options struct {
	// MaxSize is the heap reservation in bytes. Zero means
	// heap.DefaultMaxSize.
	MaxSize int

	// Skew is the initial break offset within the reservation. Useful for
	// exercising alignment correction; zero otherwise.
	Skew int

	// Backing selects OS-reserved or Go-allocated memory.
	// Default: BackingOS.
	Backing Backing

	// Checks selects whether heap invariants are verified after every
	// mutating call.
	Checks CheckMode

	// Logger receives debug traces. If nil, traces are discarded unless
	// HEAPKIT_LOG_ALLOC is set.
	Logger *slog.Logger

	// OnFatal receives invariant violations. If nil, the allocator panics.
	OnFatal func(error)
}

// Backing selects where the heap reservation comes from (re-exported for convenience).
type Backing = heap.Backing

// Backing kinds.
const (
	BackingOS     = heap.BackingOS
	BackingMemory = heap.BackingMemory
)

// CheckMode selects whether invariant checks run (re-exported for convenience).
type CheckMode = alloc.CheckMode

// Check modes.
const (
	ChecksDefault = alloc.ChecksDefault
	ChecksOff     = alloc.ChecksOff
	ChecksOn      = alloc.ChecksOn
)

// Stats holds allocator counters (re-exported for convenience).
type Stats = alloc.Stats

func (o *Options) heapConfig() *heap.Config {
	return &heap.Config{MaxSize: o.MaxSize, Skew: o.Skew, Backing: o.Backing}
}

func (o *Options) allocConfig() *alloc.Config {
	return &alloc.Config{Checks: o.Checks, Logger: o.Logger, OnFatal: o.OnFatal}
}

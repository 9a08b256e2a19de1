package heap

import (
	"fmt"
	"os"
	"unsafe"
)

// DefaultMaxSize is the default reservation: 1 GiB of address space.
// Reserved but untouched pages cost no physical memory.
const DefaultMaxSize = 1 << 30

// Backing selects where the reservation comes from.
type Backing uint8

const (
	// BackingOS reserves address space from the operating system and commits
	// pages as the break advances.
	BackingOS Backing = iota

	// BackingMemory uses a Go byte slice of MaxSize bytes.
	BackingMemory
)

func (b Backing) String() string {
	switch b {
	case BackingOS:
		return "os"
	case BackingMemory:
		return "memory"
	default:
		return fmt.Sprintf("backing(%d)", uint8(b))
	}
}

// Config controls how a Heap reserves memory.
type Config struct {
	// MaxSize is the number of bytes reserved. The break can never move past
	// it. Zero means DefaultMaxSize.
	MaxSize int

	// Skew is the initial break offset within the reservation. Bytes below
	// it are never handed out and do not count towards Size.
	Skew int

	// Backing selects OS-reserved or Go-allocated memory.
	Backing Backing
}

// DefaultConfig reserves DefaultMaxSize bytes from the OS with no skew.
var DefaultConfig = Config{MaxSize: DefaultMaxSize, Backing: BackingOS}

// region is a reserved span of address space. Only the committed prefix
// may be touched.
type region interface {
	bytes() []byte
	// commit makes mem[from:to] accessible. Both bounds are page multiples.
	commit(from, to int) error
	release() error
}

// Heap is a contiguous, monotonically growing span of memory with an
// sbrk-style break.
type Heap struct {
	r         region
	mem       []byte
	brk       int
	skew      int
	committed int
	pageSize  int
	backing   Backing
}

// Open reserves a heap according to cfg. A nil cfg uses DefaultConfig.
func Open(cfg *Config) (*Heap, error) {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	size := cfg.MaxSize
	if size == 0 {
		size = DefaultMaxSize
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: max size %d", ErrBadConfig, size)
	}
	if cfg.Skew < 0 || cfg.Skew >= size {
		return nil, fmt.Errorf("%w: skew %d outside reservation of %d bytes", ErrBadConfig, cfg.Skew, size)
	}

	pageSize := os.Getpagesize()
	size = (size + pageSize - 1) &^ (pageSize - 1)

	var (
		r   region
		err error
	)
	switch cfg.Backing {
	case BackingOS:
		r, err = reserve(size)
	case BackingMemory:
		r = newMemRegion(size)
	default:
		return nil, fmt.Errorf("%w: unknown backing %v", ErrBadConfig, cfg.Backing)
	}
	if err != nil {
		return nil, fmt.Errorf("heap: reserve %d bytes: %w", size, err)
	}

	return &Heap{
		r:        r,
		mem:      r.bytes(),
		brk:      cfg.Skew,
		skew:     cfg.Skew,
		pageSize: pageSize,
		backing:  cfg.Backing,
	}, nil
}

// Sbrk moves the break up by incr bytes and returns the offset of the old
// break. Sbrk(0) reports the current break. The new bytes read as zero.
func (h *Heap) Sbrk(incr int) (int, error) {
	if h.mem == nil {
		return 0, ErrClosed
	}
	if incr < 0 {
		return 0, fmt.Errorf("%w: increment %d", ErrShrink, incr)
	}
	old := h.brk
	if incr > len(h.mem)-old {
		return 0, fmt.Errorf("%w: break %d + %d exceeds reservation of %d bytes",
			ErrNoMemory, old, incr, len(h.mem))
	}
	end := old + incr
	if end > h.committed {
		target := min((end+h.pageSize-1)&^(h.pageSize-1), len(h.mem))
		if err := h.r.commit(h.committed, target); err != nil {
			return 0, fmt.Errorf("%w: commit [%d, %d): %w", ErrNoMemory, h.committed, target, err)
		}
		h.committed = target
	}
	h.brk = end
	return old, nil
}

// Bytes returns the heap contents up to the current break. The slice shares
// memory with the reservation; it must be fetched again after Sbrk to see
// the new bytes.
func (h *Heap) Bytes() []byte {
	return h.mem[:h.brk:h.brk]
}

// Break returns the current break offset.
func (h *Heap) Break() int { return h.brk }

// Size returns the cumulative number of bytes handed out by Sbrk.
func (h *Heap) Size() int { return h.brk - h.skew }

// Cap returns the size of the reservation.
func (h *Heap) Cap() int { return len(h.mem) }

// Committed returns the number of accessible bytes, a page multiple at or
// above the break.
func (h *Heap) Committed() int { return h.committed }

// Backing reports where the reservation came from.
func (h *Heap) Backing() Backing { return h.backing }

// Addr returns the address of the byte at offset off.
func (h *Heap) Addr(off int) uintptr {
	return h.base() + uintptr(off)
}

// Offset returns the heap offset of the first byte of p. ok is false when
// p does not start below the break of this heap.
func (h *Heap) Offset(p []byte) (int, bool) {
	ptr := unsafe.SliceData(p)
	if ptr == nil || h.mem == nil {
		return 0, false
	}
	addr := uintptr(unsafe.Pointer(ptr))
	base := h.base()
	if addr < base || addr >= base+uintptr(h.brk) {
		return 0, false
	}
	return int(addr - base), true
}

// Close releases the reservation. Every slice into the heap becomes invalid.
// Calling Close more than once is a no-op.
func (h *Heap) Close() error {
	if h.mem == nil {
		return nil
	}
	err := h.r.release()
	h.mem = nil
	h.r = nil
	h.brk, h.committed = 0, 0
	return err
}

func (h *Heap) base() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(h.mem)))
}

// memRegion is a reservation backed by ordinary Go memory.
type memRegion struct {
	mem []byte
}

func newMemRegion(size int) *memRegion {
	return &memRegion{mem: make([]byte, size)}
}

func (m *memRegion) bytes() []byte { return m.mem }

func (m *memRegion) commit(_, _ int) error { return nil }

func (m *memRegion) release() error {
	m.mem = nil
	return nil
}

package verify

import (
	"fmt"
	"sort"

	"github.com/joshuapare/heapkit/heap/block"
	"github.com/joshuapare/heapkit/internal/format"
)

// Validation error types.
const (
	TypeSentinel   = "Sentinel"
	TypeFreeList   = "FreeList"
	TypeAlignment  = "Alignment"
	TypeOwnership  = "Ownership"
	TypeAccounting = "Accounting"
	TypeState      = "State"
)

// ValidationError describes a violated heap invariant.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]any
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Region is the view of a heap the checks need.
type Region interface {
	Bytes() []byte
	Addr(off int) uintptr
}

// Extent is a block's header offset and header-inclusive size.
type Extent struct {
	Off  int
	Size int
}

// Ledger is the allocator's record of everything it carved out of the heap.
type Ledger struct {
	// HeapBytes is the cumulative number of bytes obtained from the heap.
	HeapBytes int

	// HeapStart is the heap offset of the first byte ever obtained.
	HeapStart int

	// Sentinel is the footprint carved for the sentinel. Its header
	// records size 0, so the footprint is tracked here.
	Sentinel Extent

	// Blocks maps the header offset of every block ever carved to its size.
	Blocks map[int]int

	// PaddingBytes counts bytes abandoned by alignment correction.
	PaddingBytes int
}

// Payload checks that the payload of the block at off is 16-byte aligned.
func Payload(r Region, off int) error {
	addr := r.Addr(off + format.HeaderSize)
	if !format.IsAlignedAddr(addr) {
		return &ValidationError{
			Type:    TypeAlignment,
			Message: fmt.Sprintf("payload address 0x%X not %d-byte aligned", addr, format.Alignment),
			Offset:  off,
		}
	}
	return nil
}

// FreeList walks the free list from the sentinel at sentinel and returns the
// free blocks in list order.
func FreeList(r Region, sentinel int) ([]Extent, error) {
	mem := r.Bytes()

	head := block.At(mem, sentinel)
	if err := head.Check(); err != nil {
		return nil, &ValidationError{Type: TypeSentinel, Message: err.Error(), Offset: sentinel}
	}
	if head.Allocated() {
		return nil, &ValidationError{Type: TypeSentinel, Message: "sentinel marked allocated", Offset: sentinel}
	}
	if head.Size() != 0 {
		return nil, &ValidationError{
			Type:    TypeSentinel,
			Message: fmt.Sprintf("sentinel has size %d, want 0", head.Size()),
			Offset:  sentinel,
		}
	}
	if err := Payload(r, sentinel); err != nil {
		return nil, err
	}

	sent, _ := head.Free()
	maxNodes := len(mem)/format.MinBlockSize + 1
	seen := make(map[int]struct{})
	var blocks []Extent

	prev := sentinel
	for cur := sent.Next(); cur != sentinel; {
		if len(blocks) >= maxNodes {
			return nil, &ValidationError{
				Type:    TypeFreeList,
				Message: fmt.Sprintf("list does not return to the sentinel after %d nodes", maxNodes),
				Offset:  cur,
			}
		}
		if cur < 0 || cur > len(mem) {
			return nil, &ValidationError{
				Type:    TypeFreeList,
				Message: fmt.Sprintf("link from 0x%X points outside the heap (0x%X)", prev, cur),
				Offset:  cur,
				Details: map[string]any{"prev": prev, "heap_size": len(mem)},
			}
		}
		if _, dup := seen[cur]; dup {
			return nil, &ValidationError{
				Type:    TypeFreeList,
				Message: fmt.Sprintf("block linked twice (again from 0x%X)", prev),
				Offset:  cur,
			}
		}
		seen[cur] = struct{}{}

		h := block.At(mem, cur)
		if err := h.Check(); err != nil {
			return nil, &ValidationError{Type: TypeFreeList, Message: err.Error(), Offset: cur}
		}
		if h.Size() == 0 {
			return nil, &ValidationError{Type: TypeFreeList, Message: "zero-sized block besides the sentinel", Offset: cur}
		}
		f, ok := h.Free()
		if !ok {
			return nil, &ValidationError{
				Type:    TypeFreeList,
				Message: fmt.Sprintf("allocated block of %d bytes in free list", h.Size()),
				Offset:  cur,
			}
		}
		if err := Payload(r, cur); err != nil {
			return nil, err
		}

		blocks = append(blocks, Extent{Off: cur, Size: h.Size()})
		prev, cur = cur, f.Next()
	}
	return blocks, nil
}

// Ownership checks that every free block is one the ledger carved, still
// carrying its carved size.
func Ownership(free []Extent, l *Ledger) error {
	for _, e := range free {
		size, ok := l.Blocks[e.Off]
		if !ok {
			return &ValidationError{Type: TypeOwnership, Message: "free block was never carved", Offset: e.Off}
		}
		if size != e.Size {
			return &ValidationError{
				Type:    TypeOwnership,
				Message: fmt.Sprintf("block size changed from %d to %d", size, e.Size),
				Offset:  e.Off,
			}
		}
	}
	return nil
}

// Accounting checks that the ledger explains every byte obtained from the
// heap exactly once and that no two carved extents overlap.
func Accounting(l *Ledger) error {
	extents := make([]Extent, 0, len(l.Blocks)+1)
	total := l.PaddingBytes
	if l.Sentinel.Size > 0 {
		extents = append(extents, l.Sentinel)
		total += l.Sentinel.Size
	}
	for off, size := range l.Blocks {
		extents = append(extents, Extent{Off: off, Size: size})
		total += size
	}
	if total != l.HeapBytes {
		return &ValidationError{
			Type:    TypeAccounting,
			Message: fmt.Sprintf("blocks and padding account for %d bytes, heap grew by %d", total, l.HeapBytes),
			Offset:  -1,
			Details: map[string]any{"padding": l.PaddingBytes, "blocks": len(l.Blocks)},
		}
	}

	sort.Slice(extents, func(i, j int) bool { return extents[i].Off < extents[j].Off })
	end := l.HeapStart
	for _, e := range extents {
		if e.Off < end {
			return &ValidationError{
				Type:    TypeAccounting,
				Message: fmt.Sprintf("extent overlaps previous one ending at 0x%X", end),
				Offset:  e.Off,
			}
		}
		end = e.Off + e.Size
	}
	if limit := l.HeapStart + l.HeapBytes; end > limit {
		return &ValidationError{
			Type:    TypeAccounting,
			Message: fmt.Sprintf("extent ends at 0x%X past the break 0x%X", end, limit),
			Offset:  -1,
		}
	}
	return nil
}

// AllInvariants runs FreeList, Ownership and Accounting in that order and
// returns the first error encountered.
func AllInvariants(r Region, sentinel int, l *Ledger) error {
	free, err := FreeList(r, sentinel)
	if err != nil {
		return err
	}
	if err := Ownership(free, l); err != nil {
		return err
	}
	return Accounting(l)
}

// Package block encodes and decodes heap block headers.
//
// A block is a header word followed by its payload. The header holds the
// header-inclusive block size with the allocation flag in bit 0. While a
// block is free the first payload word holds the heap offset of the next
// free block; while it is allocated those bytes belong to the caller.
//
//	        +--------------+------------------------------+
//	free:   | size | 0     | next | (stale bytes)         |
//	        +--------------+------------------------------+
//	used:   | size | 1     | payload ...                  |
//	        +--------------+------------------------------+
//	        ^ header         ^ 16-byte aligned
//
// The two states are separate types. Free exposes the link and Used exposes
// the payload, so neither can be reached through a block in the other
// state.
package block

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// Header is an undecided view of the block whose header sits at Off.
type Header struct {
	mem []byte
	off int
}

// At returns the header at off within mem. It does not validate the block;
// use Check before trusting values read from arbitrary offsets.
func At(mem []byte, off int) Header {
	return Header{mem: mem, off: off}
}

// Off returns the heap offset of the header.
func (h Header) Off() int { return h.off }

// Word returns the raw header word.
func (h Header) Word() uint64 { return format.ReadU64(h.mem, h.off) }

// Size returns the header-inclusive block size.
func (h Header) Size() int {
	size, _ := format.DecodeHeader(h.Word())
	return size
}

// Allocated reports whether the allocation flag is set.
func (h Header) Allocated() bool {
	_, allocated := format.DecodeHeader(h.Word())
	return allocated
}

// End returns the offset one past the last byte of the block.
func (h Header) End() int { return h.off + h.Size() }

// PayloadOff returns the offset of the first payload byte, which is also the
// offset of the free-list link.
func (h Header) PayloadOff() int { return h.off + format.HeaderSize }

// Free returns the free view of the block. ok is false if the block is allocated.
func (h Header) Free() (Free, bool) {
	if h.Allocated() {
		return Free{}, false
	}
	return Free{h}, true
}

// Used returns the allocated view of the block. ok is false if the block is free.
func (h Header) Used() (Used, bool) {
	if !h.Allocated() {
		return Used{}, false
	}
	return Used{h}, true
}

// Check validates that the header and link fit in mem, that the block does
// not run past the end of mem and that the encoded size is well formed.
// Zero-sized blocks (the free-list sentinel) are accepted.
func (h Header) Check() error {
	if !buf.Has(h.mem, h.off, format.MinBlockSize) {
		return fmt.Errorf("%w: header at %d, heap is %d bytes", format.ErrTruncated, h.off, len(h.mem))
	}
	if err := CheckSize(int(format.RawSize(h.Word()))); err != nil {
		return err
	}
	if size := h.Size(); size != 0 && !buf.Has(h.mem, h.off, size) {
		return fmt.Errorf("%w: block at %d of %d bytes, heap is %d bytes",
			format.ErrTruncated, h.off, size, len(h.mem))
	}
	return nil
}

func (h Header) String() string {
	state := "free"
	if h.Allocated() {
		state = "used"
	}
	return fmt.Sprintf("block{off=%d size=%d %s}", h.off, h.Size(), state)
}

// CheckSize reports sizes that cannot be stored in a header: negative sizes,
// sizes that are not a multiple of the alignment unit, and non-zero sizes
// below the minimum block size.
func CheckSize(size int) error {
	if size < 0 || !format.IsAligned(size) {
		return fmt.Errorf("%w: %d", format.ErrMisalignedSize, size)
	}
	if size != 0 && size < format.MinBlockSize {
		return fmt.Errorf("%w: %d below minimum %d", format.ErrMisalignedSize, size, format.MinBlockSize)
	}
	return nil
}

// Format writes a fresh free header of the given size at off and returns
// its free view. The link is left for the caller to set.
func Format(mem []byte, off, size int) Free {
	format.PutU64(mem, off, format.EncodeHeader(size, false))
	return Free{Header{mem: mem, off: off}}
}

// Free is a block whose allocation flag is clear. It is linked into the
// free list through the word that would otherwise start its payload.
type Free struct {
	Header
}

// Next returns the heap offset of the next free block.
func (f Free) Next() int {
	return int(format.ReadU64(f.mem, f.PayloadOff()))
}

// SetNext stores the heap offset of the next free block.
func (f Free) SetNext(off int) {
	format.PutU64(f.mem, f.PayloadOff(), uint64(off))
}

// Allocate sets the allocation flag and returns the allocated view. The
// link bytes become the start of the payload.
func (f Free) Allocate() Used {
	format.PutU64(f.mem, f.off, format.EncodeHeader(f.Size(), true))
	return Used{f.Header}
}

// Used is a block whose allocation flag is set.
type Used struct {
	Header
}

// Capacity returns the usable payload bytes of the block.
func (u Used) Capacity() int {
	return u.Size() - format.HeaderSize
}

// Payload returns the first n payload bytes. The slice capacity is the
// block's full capacity, so callers may grow into the internal slack with
// append without leaving the block.
func (u Used) Payload(n int) []byte {
	start := u.PayloadOff()
	return u.mem[start : start+n : start+u.Capacity()]
}

// Release clears the allocation flag and returns the free view. The caller
// must link the block into the free list.
func (u Used) Release() Free {
	format.PutU64(u.mem, u.off, format.EncodeHeader(u.Size(), false))
	return Free{u.Header}
}

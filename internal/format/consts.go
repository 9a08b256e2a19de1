// Package format holds the binary layout of heap blocks: the alignment unit,
// the header word, and the encoding of size and allocation flag within it.
// Higher-level packages use these helpers so that the layout is defined in
// exactly one place.
package format

const (
	// Alignment is the strictest native alignment (max_align_t) that every
	// payload address must satisfy. Block sizes are multiples of it.
	Alignment = 16

	// AlignmentMask masks the low-order bits that must be zero in an
	// aligned value.
	AlignmentMask = Alignment - 1

	// WordSize is the width of the header word and of the free-list link.
	WordSize = 8

	// HeaderSize is the number of bytes preceding every payload.
	HeaderSize = WordSize

	// HeaderPhase is the required remainder of a header address modulo
	// Alignment. A header at this phase places its payload on an
	// Alignment boundary.
	HeaderPhase = Alignment - HeaderSize

	// LinkSize is the width of the free-list link stored in the first
	// payload word of a free block.
	LinkSize = WordSize

	// MinBlockSize is the smallest block: the header plus the link.
	// It is exactly one alignment unit.
	MinBlockSize = HeaderSize + LinkSize

	// AllocFlag is the header bit marking an allocated block. Block sizes
	// are multiples of Alignment, so the low bits are always free.
	AllocFlag = 1

	// SizeMask extracts the block size from a header word.
	SizeMask = ^uint64(AlignmentMask)
)

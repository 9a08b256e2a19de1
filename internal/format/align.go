package format

import "math"

// Alignment utilities for heap blocks.
// Every block size and every payload address is a multiple of Alignment.

// Align16 returns n aligned up to the next 16-byte boundary.
//
// Example:
//
//	Align16(1)  = 16
//	Align16(16) = 16
//	Align16(17) = 32
func Align16(n int) int {
	return (n + AlignmentMask) & ^AlignmentMask
}

// IsAligned reports whether n is a multiple of Alignment.
func IsAligned(n int) bool {
	return n&AlignmentMask == 0
}

// IsAlignedAddr reports whether addr sits on an Alignment boundary.
func IsAlignedAddr(addr uintptr) bool {
	return addr&AlignmentMask == 0
}

// BlockSize returns the header-inclusive, alignment-rounded block size for
// a payload of n bytes. The result is never smaller than MinBlockSize.
// ok is false when the rounding would overflow int.
//
// Example:
//
//	BlockSize(1)  = 16
//	BlockSize(8)  = 16
//	BlockSize(9)  = 32
//	BlockSize(100) = 112
func BlockSize(n int) (int, bool) {
	if n < 0 || n > math.MaxInt-HeaderSize-AlignmentMask {
		return 0, false
	}
	return Align16(n + HeaderSize), true
}

// HeaderPad returns how many bytes must be skipped from addr to reach the
// next valid header position (an address congruent to HeaderPhase modulo
// Alignment). It returns 0 when addr is already a valid header position.
//
// Example:
//
//	HeaderPad(0x1008) = 0
//	HeaderPad(0x1000) = 8
//	HeaderPad(0x1009) = 15
func HeaderPad(addr uintptr) int {
	phase := int(addr & AlignmentMask)
	return (HeaderPhase - phase + Alignment) & AlignmentMask
}

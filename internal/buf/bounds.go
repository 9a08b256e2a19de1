// Package buf contains overflow-checked size arithmetic and bounds helpers
// shared by the heap packages.
package buf

import "math"

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative sizes, returning ok = false
// when the product does not fit in int or either operand is negative.
//
// The check is the classic calloc one: the product is computed with
// wrap-around and accepted only if dividing it by count recovers size.
func MulOverflowSafe(count, size int) (int, bool) {
	if count < 0 || size < 0 {
		return 0, false
	}
	if count == 0 || size == 0 {
		return 0, true
	}
	total := uint(count) * uint(size)
	if total/uint(count) != uint(size) || total > math.MaxInt {
		return 0, false
	}
	return int(total), true
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
// The returned slice has its capacity clipped to n so appends cannot reach
// bytes past the range.
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}

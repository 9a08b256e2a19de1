package format

import "encoding/binary"

// Binary encoding of the header word and the free-list link.
//
// Both are 8-byte little-endian words. Using encoding/binary keeps the
// layout identical on every platform and lets the compiler fold the byte
// shuffling into plain loads and stores.

// PutU64 writes a uint64 value to the buffer at the specified offset in little-endian format.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// ReadU64 reads a uint64 value from the buffer at the specified offset in little-endian format.
func ReadU64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}

// EncodeHeader packs a block size and allocation flag into a header word.
// size must be a multiple of Alignment; the low bits are overwritten by the flag.
func EncodeHeader(size int, allocated bool) uint64 {
	w := uint64(size) & SizeMask
	if allocated {
		w |= AllocFlag
	}
	return w
}

// DecodeHeader unpacks a header word into its block size and allocation flag.
func DecodeHeader(w uint64) (size int, allocated bool) {
	return int(w & SizeMask), w&AllocFlag != 0
}

// RawSize returns the size bits of a header word without masking the
// reserved low bits other than the flag. Consistency checks use it to
// detect headers whose low bits were corrupted.
func RawSize(w uint64) uint64 {
	return w &^ AllocFlag
}

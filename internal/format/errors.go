package format

import "errors"

var (
	// ErrMisalignedSize indicates a block size that is not a multiple of Alignment.
	ErrMisalignedSize = errors.New("format: block size not a multiple of alignment")
	// ErrTruncated indicates the buffer lacked the bytes required for a header or link.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrSizeOverflow indicates a request whose block size cannot be represented.
	ErrSizeOverflow = errors.New("format: block size overflows int")
)

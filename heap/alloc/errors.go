package alloc

import (
	"errors"

	"github.com/joshuapare/heapkit/heap"
)

var (
	// ErrNoMemory indicates the heap could not grow. It is the heap package's
	// sentinel, so errors.Is matches either name.
	ErrNoMemory = heap.ErrNoMemory

	// ErrOverflow indicates count * size does not fit in int.
	ErrOverflow = errors.New("alloc: size multiplication overflows")

	// ErrTooLarge indicates a request whose block size cannot be represented.
	ErrTooLarge = errors.New("alloc: request too large")

	// ErrNegativeSize indicates a negative size or count.
	ErrNegativeSize = errors.New("alloc: negative size")

	// ErrBadPointer indicates a slice that was not returned by this allocator
	// or whose block is already free. It is only returned when the fatal
	// handler does not stop the caller.
	ErrBadPointer = errors.New("alloc: pointer not allocated by this allocator")

	// ErrCorrupt indicates the free list is inconsistent. It is only returned
	// when the fatal handler does not stop the caller.
	ErrCorrupt = errors.New("alloc: heap corrupted")
)

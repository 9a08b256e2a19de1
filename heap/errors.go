package heap

import "errors"

var (
	// ErrNoMemory indicates the break cannot move: the reservation is used up
	// or the OS refused to commit more pages.
	ErrNoMemory = errors.New("heap: out of memory")

	// ErrShrink indicates a negative Sbrk increment. The heap never shrinks.
	ErrShrink = errors.New("heap: break cannot move down")

	// ErrBadConfig indicates an invalid reservation size or skew.
	ErrBadConfig = errors.New("heap: invalid configuration")

	// ErrClosed indicates use of a heap after Close.
	ErrClosed = errors.New("heap: closed")
)

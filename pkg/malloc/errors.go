package malloc

import (
	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/alloc"
)

// Errors returned by the allocator (re-exported for convenience).
var (
	ErrNoMemory     = alloc.ErrNoMemory
	ErrOverflow     = alloc.ErrOverflow
	ErrTooLarge     = alloc.ErrTooLarge
	ErrNegativeSize = alloc.ErrNegativeSize
	ErrBadPointer   = alloc.ErrBadPointer
	ErrClosed       = heap.ErrClosed
)

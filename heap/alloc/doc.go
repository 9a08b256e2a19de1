// Package alloc implements a first-fit, free-list memory allocator on top of
// an sbrk-style heap.
//
// # Overview
//
// The allocator provides the four classic entry points over a *heap.Heap:
//
//   - Malloc(n): allocate n bytes
//   - Calloc(count, size): allocate count*size zeroed bytes, overflow checked
//   - Realloc(p, n): move p into a block of n bytes
//   - Free(p): return p's block to the free list
//
// Payloads are returned as byte slices into the heap. len(p) is the requested
// size and cap(p) the usable capacity of the block, which may be larger.
//
// # Design
//
//   - Explicit free list: singly linked, circular, anchored by a sentinel
//   - First fit: the first free block large enough wins
//   - LIFO: a freed block is the next one the scan considers
//   - No splitting: a fitting block is handed out whole
//   - No coalescing: neighbours of a freed block are never inspected
//   - No minimum growth: the heap grows by exactly what a request needs
//
// # Block Layout
//
// Every block starts with an 8-byte header holding its total size (a
// multiple of 16) and an allocation flag in bit 0. Headers sit 8 bytes
// below a 16-byte boundary, so every payload is 16-byte aligned. While a
// block is free its first payload word links to the next free block.
//
//	Malloc(100)  → block of align16(100+8) = 112 bytes, cap(p) = 104
//	Malloc(1)    → block of 16 bytes, cap(p) = 8
//
// # Heap Growth
//
// When the scan finds nothing, the allocator asks the heap for exactly the
// block size plus one alignment unit. If the returned break is already a
// valid header position the whole increment becomes the block; otherwise the
// header is moved up to the next valid position and the block gets exactly
// the requested size. The skipped bytes are never reused.
//
// # Checks
//
// With checks enabled (Config.Checks, the heapkit_debug build tag, or the
// HEAPKIT_DEBUG environment variable) every mutating operation is followed
// by a full pass of the heap/verify invariants. Violations are passed to
// Config.OnFatal, which panics by default.
//
// # Usage Example
//
//	h, err := heap.Open(nil)
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	a, err := alloc.New(h, nil)
//	if err != nil {
//	    return err
//	}
//
//	p, err := a.Malloc(256)
//	if err != nil {
//	    return err
//	}
//	copy(p, "hello")
//	p, err = a.Realloc(p, 1024)
//	...
//	a.Free(p)
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must serialize every
// call, typically with one mutex around the allocator.
//
// # Related Packages
//
//   - github.com/joshuapare/heapkit/heap: the growth primitive
//   - github.com/joshuapare/heapkit/heap/block: header codec
//   - github.com/joshuapare/heapkit/heap/verify: invariant checks
package alloc

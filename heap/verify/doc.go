// Package verify checks the structural invariants of an allocator heap.
//
// # Overview
//
// The allocator keeps all of its state inside the heap itself: a circular,
// singly linked free list anchored by a sentinel block. This package walks
// that list and reports anything that would let the allocator hand out
// corrupt memory. The allocator runs these checks after every mutating
// operation when checks are enabled; tests call them directly.
//
// Validation categories:
//   - Sentinel: present, zero-sized, never allocated
//   - FreeList: every node in bounds, well formed, free, 16-byte aligned
//     payload, linked exactly once, list returns to the sentinel
//   - Ownership: every free-list node is a block the allocator carved, with
//     its original size (blocks are never split or merged)
//   - Accounting: every byte obtained from the heap is in exactly one block,
//     the sentinel, or abandoned alignment padding
//
// # Quick Start
//
//	blocks, err := verify.FreeList(h, sentinelOff)
//	if err != nil {
//	    var verr *verify.ValidationError
//	    if errors.As(err, &verr) {
//	        fmt.Printf("%s at 0x%X: %s\n", verr.Type, verr.Offset, verr.Message)
//	    }
//	}
//
// # Limitations
//
// Allocated blocks carry no boundary tags and padding gaps are not
// recorded in the heap, so the heap cannot be walked linearly without the
// allocator's ledger. Payload contents are never inspected.
//
// # Related Packages
//
//   - github.com/joshuapare/heapkit/heap/alloc: runs these checks as its assertion layer
//   - github.com/joshuapare/heapkit/heap/block: header codec
package verify

// Package heap provides the raw heap-growth primitive used by the allocator.
//
// # Overview
//
// A Heap behaves like a process break: it reserves a contiguous range of
// address space up front and hands it out from the bottom with Sbrk. The
// break only ever moves up; memory below it is never returned.
//
//	h, err := heap.Open(nil)
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	off, err := h.Sbrk(4096) // offset of the old break
//	mem := h.Bytes()         // mem[off:off+4096] is now usable
//
// # Backings
//
// BackingOS reserves the range from the operating system without making it
// accessible (mmap PROT_NONE on unix, VirtualAlloc MEM_RESERVE on windows)
// and commits pages as the break crosses them, so touching memory past the
// break faults just like it would past a real program break.
//
// BackingMemory uses an ordinary Go byte slice. It is used on platforms
// without a supported reservation primitive and by tests that want a small,
// deterministic heap.
//
// # Skew
//
// Config.Skew starts the break that many bytes into the reservation. It
// reproduces a break left at an arbitrary alignment phase by earlier users,
// which is what the allocator's alignment correction has to cope with.
//
// # Stability
//
// The reservation never moves, so slices returned by Bytes stay valid for
// the lifetime of the Heap even after further growth. They are invalid after
// Close.
//
// # Thread Safety
//
// Heap instances are not thread-safe.
package heap

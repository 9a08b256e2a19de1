package malloc

import (
	"errors"
	"fmt"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/alloc"
)

// Allocator is an allocator together with the heap it owns.
type Allocator struct {
	*alloc.Allocator
	heap *heap.Heap
}

// New reserves a heap and creates an allocator on it. A nil opts uses the
// defaults: a 1 GiB OS reservation and checks per build tag or environment.
func New(opts *Options) (*Allocator, error) {
	if opts == nil {
		opts = &Options{}
	}
	h, err := heap.Open(opts.heapConfig())
	if err != nil {
		return nil, fmt.Errorf("malloc: %w", err)
	}
	a, err := alloc.New(h, opts.allocConfig())
	if err != nil {
		return nil, errors.Join(fmt.Errorf("malloc: %w", err), h.Close())
	}
	return &Allocator{Allocator: a, heap: h}, nil
}

// Reserved returns the size of the heap reservation.
func (m *Allocator) Reserved() int {
	return m.heap.Cap()
}

// Close releases the heap. Every slice handed out becomes invalid and
// further allocations fail with ErrClosed.
func (m *Allocator) Close() error {
	return m.heap.Close()
}

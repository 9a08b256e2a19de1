/*
Package malloc provides a ready-to-use heap allocator: a reserved heap and
a first-fit free-list allocator on top of it, created and closed together.

# Quick Start

	m, err := malloc.New(nil)
	if err != nil {
	    log.Fatal(err)
	}
	defer m.Close()

	p, err := m.Malloc(128)
	if err != nil {
	    log.Fatal(err)
	}
	copy(p, "hello")
	m.Free(p)

# Features

  - Classic Malloc, Calloc, Realloc and Free over byte slices
  - 16-byte aligned payloads regardless of where the heap starts
  - Overflow-checked Calloc
  - Optional invariant checking after every operation
  - Structured debug tracing through log/slog

# Options

	m, err := malloc.New(&malloc.Options{
	    MaxSize: 64 << 20,          // reserve 64 MiB
	    Checks:  malloc.ChecksOn,   // verify the heap after each call
	    Logger:  slog.Default(),
	})

Checks can also be enabled by building with -tags heapkit_debug or by
setting HEAPKIT_DEBUG. HEAPKIT_LOG_ALLOC sends debug traces to stderr when
no Logger is given.

# Memory Model

Slices returned by the allocator point into the heap reservation, not the
Go heap. They stay valid until freed or until Close; using one afterwards
is undefined. Appending within cap(p) stays inside the block; appending past
it moves the data to the Go heap, and that copy must not be passed to Free.

# Thread Safety

An Allocator is not safe for concurrent use.
*/
package malloc

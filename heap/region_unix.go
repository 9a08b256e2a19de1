//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package heap

import (
	"errors"

	"golang.org/x/sys/unix"
)

// mmapRegion reserves address space with an inaccessible anonymous mapping
// and opens it up page by page with mprotect.
type mmapRegion struct {
	mem []byte
}

func reserve(size int) (region, error) {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	return &mmapRegion{mem: mem}, nil
}

func (r *mmapRegion) bytes() []byte { return r.mem }

func (r *mmapRegion) commit(from, to int) error {
	if to <= from {
		return nil
	}
	return unix.Mprotect(r.mem[from:to], unix.PROT_READ|unix.PROT_WRITE)
}

func (r *mmapRegion) release() error {
	if r.mem == nil {
		return nil
	}
	err := unix.Munmap(r.mem)
	r.mem = nil
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}

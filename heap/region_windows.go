//go:build windows

package heap

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// virtualRegion reserves address space with VirtualAlloc(MEM_RESERVE) and
// commits it as the break advances.
type virtualRegion struct {
	addr uintptr
	mem  []byte
}

func reserve(size int) (region, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil {
		return nil, err
	}
	mem := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	return &virtualRegion{addr: addr, mem: mem}, nil
}

func (r *virtualRegion) bytes() []byte { return r.mem }

func (r *virtualRegion) commit(from, to int) error {
	if to <= from {
		return nil
	}
	_, err := windows.VirtualAlloc(r.addr+uintptr(from), uintptr(to-from), windows.MEM_COMMIT, windows.PAGE_READWRITE)
	return err
}

func (r *virtualRegion) release() error {
	if r.mem == nil {
		return nil
	}
	r.mem = nil
	return windows.VirtualFree(r.addr, 0, windows.MEM_RELEASE)
}

//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly) && !windows

package heap

// reserve falls back to Go memory when no reservation primitive is available.
func reserve(size int) (region, error) {
	return newMemRegion(size), nil
}

//go:build !heapkit_debug

package alloc

// debugBuild enables checks by default in binaries built with -tags heapkit_debug.
const debugBuild = false

// Package cmem allocates image buffers outside the Go heap.
//
// Buffers handed to C callers must not move and must not be Go pointers, so
// the shared library backs every handle with C.malloc memory. Without cgo
// the allocator falls back to the Go heap, which keeps the package usable in
// tests and pure-Go builds.
package cmem

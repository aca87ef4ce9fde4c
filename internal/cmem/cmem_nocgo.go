//go:build !cgo

package cmem

// Native reports whether buffers come from C.malloc.
const Native = false

// Alloc returns n zeroed bytes from the Go heap.
func (Allocator) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrBadSize
	}
	return make([]byte, n), nil
}

// Free does nothing; the garbage collector reclaims the memory.
func (Allocator) Free([]byte) {}

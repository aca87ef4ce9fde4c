//go:build cgo

package cmem

/*
#include <stdlib.h>
*/
import "C"

import "unsafe"

// Native reports whether buffers come from C.malloc.
const Native = true

// Alloc returns n bytes from C.malloc. The memory is not zeroed.
func (Allocator) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrBadSize
	}
	p := C.malloc(C.size_t(n))
	if p == nil {
		return nil, ErrOutOfMemory
	}
	return unsafe.Slice((*byte)(p), n), nil
}

// Free returns b to C.free. b must come from Alloc and must not be used
// afterwards.
func (Allocator) Free(b []byte) {
	if len(b) == 0 {
		return
	}
	C.free(unsafe.Pointer(unsafe.SliceData(b)))
}

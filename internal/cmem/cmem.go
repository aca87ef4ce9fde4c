package cmem

import "errors"

// ErrOutOfMemory is returned when the underlying allocator has no memory
// for the request.
var ErrOutOfMemory = errors.New("cmem: out of memory")

// ErrBadSize is returned for non-positive sizes.
var ErrBadSize = errors.New("cmem: size must be positive")

// Allocator hands out byte slices backed by C memory when cgo is enabled.
// The zero value is ready to use and safe for concurrent use.
type Allocator struct{}

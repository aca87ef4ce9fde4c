package handle

import (
	"sync"
	"sync/atomic"
)

// Allocator provides the memory that backs handle buffers.
//
// Alloc returns a slice of exactly n bytes (n > 0) or an error. Free receives
// only slices previously returned by the same allocator, exactly once.
type Allocator interface {
	Alloc(n int) ([]byte, error)
	Free(b []byte)
}

// HeapAllocator allocates buffers on the Go heap. Free is a no-op and the
// garbage collector reclaims the memory.
type HeapAllocator struct{}

// Alloc returns a zeroed n-byte slice.
func (HeapAllocator) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrAllocation
	}
	return make([]byte, n), nil
}

// Free does nothing.
func (HeapAllocator) Free([]byte) {}

// TrackingAllocator wraps another allocator and counts what is outstanding.
// It is safe for concurrent use.
type TrackingAllocator struct {
	next Allocator

	mu    sync.Mutex
	live  map[*byte]int
	bytes int64

	allocs atomic.Int64
	frees  atomic.Int64

	// FailAfter, when positive, makes the allocator fail once that many
	// successful allocations have been handed out.
	FailAfter int64
}

// NewTrackingAllocator wraps next, or the heap allocator if next is nil.
func NewTrackingAllocator(next Allocator) *TrackingAllocator {
	if next == nil {
		next = HeapAllocator{}
	}
	return &TrackingAllocator{
		next: next,
		live: make(map[*byte]int),
	}
}

// Alloc allocates through the wrapped allocator and records the slice.
func (a *TrackingAllocator) Alloc(n int) ([]byte, error) {
	if a.FailAfter > 0 && a.allocs.Load() >= a.FailAfter {
		return nil, ErrAllocation
	}
	b, err := a.next.Alloc(n)
	if err != nil {
		return nil, err
	}
	a.allocs.Add(1)

	a.mu.Lock()
	a.live[&b[0]] = len(b)
	a.bytes += int64(len(b))
	a.mu.Unlock()
	return b, nil
}

// Free forgets the slice and frees it through the wrapped allocator.
// Freeing an unknown or already-freed slice panics.
func (a *TrackingAllocator) Free(b []byte) {
	if len(b) == 0 {
		return
	}

	a.mu.Lock()
	n, ok := a.live[&b[0]]
	if ok {
		delete(a.live, &b[0])
		a.bytes -= int64(n)
	}
	a.mu.Unlock()

	if !ok {
		panic("handle: free of untracked buffer")
	}
	a.frees.Add(1)
	a.next.Free(b)
}

// Live returns the number of outstanding allocations and their total size.
func (a *TrackingAllocator) Live() (count int, bytes int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live), a.bytes
}

// Allocs returns the number of successful allocations so far.
func (a *TrackingAllocator) Allocs() int64 { return a.allocs.Load() }

// Frees returns the number of frees so far.
func (a *TrackingAllocator) Frees() int64 { return a.frees.Load() }

// Package bufpool provides a tiered buffer pool for efficient memory reuse.
//
// The buffer pool provides reusable byte slices for I/O operations,
// reducing GC pressure and allocation overhead. The event loop borrows a
// buffer for every socket read, response head and file chunk, so these
// allocations would otherwise dominate the heap profile.
//
// # Design Rationale
//
// The pool uses three size tiers to balance memory efficiency with reuse:
//   - Small buffers (default 4KB): receive buffers and response heads
//   - Medium buffers (default 64KB): file chunks at typical chunk sizes
//   - Large buffers (default 1MB): oversized configured chunks
//
// Buffers larger than the large tier are allocated directly and not pooled
// to avoid keeping very large buffers in memory indefinitely.
//
// # Thread Safety
//
// All operations are thread-safe via sync.Pool. The event loop is the main
// user but the admin API borrows buffers too.
//
// # Usage
//
//	buf := bufpool.Get(size)
//	defer bufpool.Put(buf)
//	// ... use buf ...
package bufpool

import (
	"sync"
)

// Default buffer size classes.
// These can be overridden when creating a custom pool with NewPool.
const (
	// DefaultSmallSize covers the fixed receive buffer and response heads (4KB)
	DefaultSmallSize = 4 << 10

	// DefaultMediumSize covers file chunks at the usual chunk sizes (64KB)
	DefaultMediumSize = 64 << 10

	// DefaultLargeSize covers aggressively tuned chunk sizes (1MB)
	DefaultLargeSize = 1 << 20
)

// Pool manages a set of byte slice pools organized by size class.
// It automatically selects the appropriate pool based on requested size
// and provides fallback allocation for oversized requests.
type Pool struct {
	small      sync.Pool
	medium     sync.Pool
	large      sync.Pool
	smallSize  int
	mediumSize int
	largeSize  int
}

// Config holds configuration for creating a custom buffer pool.
type Config struct {
	// SmallSize is the size of small buffers (default: 4KB)
	SmallSize int

	// MediumSize is the size of medium buffers (default: 64KB)
	MediumSize int

	// LargeSize is the size of large buffers (default: 1MB)
	LargeSize int
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{
		SmallSize:  DefaultSmallSize,
		MediumSize: DefaultMediumSize,
		LargeSize:  DefaultLargeSize,
	}
}

// NewPool creates a new buffer pool with the given configuration.
// If config is nil, default values are used.
func NewPool(cfg *Config) *Pool {
	if cfg == nil {
		defaultCfg := DefaultConfig()
		cfg = &defaultCfg
	}

	// Apply defaults for zero values
	if cfg.SmallSize <= 0 {
		cfg.SmallSize = DefaultSmallSize
	}
	if cfg.MediumSize <= 0 {
		cfg.MediumSize = DefaultMediumSize
	}
	if cfg.LargeSize <= 0 {
		cfg.LargeSize = DefaultLargeSize
	}

	p := &Pool{
		smallSize:  cfg.SmallSize,
		mediumSize: cfg.MediumSize,
		largeSize:  cfg.LargeSize,
	}

	p.small = sync.Pool{
		New: func() any {
			buf := make([]byte, p.smallSize)
			return &buf
		},
	}
	p.medium = sync.Pool{
		New: func() any {
			buf := make([]byte, p.mediumSize)
			return &buf
		},
	}
	p.large = sync.Pool{
		New: func() any {
			buf := make([]byte, p.largeSize)
			return &buf
		},
	}

	return p
}

// Get returns a byte slice of at least the requested size.
// The returned slice may be larger than requested to use pooled buffers efficiently.
//
// The caller must call Put() when finished with the buffer to return it to the pool.
// Failing to call Put() will cause memory leaks as buffers accumulate outside the pool.
//
// For sizes larger than LargeSize, a new slice is allocated directly
// and will not be pooled (to avoid keeping very large buffers in memory).
//
// Parameters:
//   - size: Minimum required buffer size in bytes
//
// Returns:
//   - A byte slice with length equal to the requested size
//   - The slice capacity may exceed size to align with pool size classes
func (p *Pool) Get(size int) []byte {
	var bufPtr *[]byte

	switch {
	case size <= p.smallSize:
		bufPtr = p.small.Get().(*[]byte)
	case size <= p.mediumSize:
		bufPtr = p.medium.Get().(*[]byte)
	case size <= p.largeSize:
		bufPtr = p.large.Get().(*[]byte)
	default:
		// For very large chunks, allocate directly without pooling.
		// This prevents keeping oversized buffers in memory indefinitely.
		buf := make([]byte, size)
		return buf
	}

	// Return slice with exact requested length but backed by pooled buffer
	buf := *bufPtr
	return buf[:size]
}

// Put returns a buffer to the pool for reuse.
// The buffer must have been obtained from Get() and should not be used after Put().
//
// Buffers larger than LargeSize are not pooled and will be GC'd normally.
//
// Thread Safety: Safe to call concurrently from multiple goroutines.
//
// Parameters:
//   - buf: The buffer to return to the pool (must be from Get())
func (p *Pool) Put(buf []byte) {
	// Ignore nil buffers
	if buf == nil {
		return
	}

	// Determine which pool this buffer belongs to based on capacity
	capacity := cap(buf)

	switch capacity {
	case p.smallSize:
		// Reset length to full capacity for next use
		fullBuf := buf[:cap(buf)]
		p.small.Put(&fullBuf)
	case p.mediumSize:
		fullBuf := buf[:cap(buf)]
		p.medium.Put(&fullBuf)
	case p.largeSize:
		fullBuf := buf[:cap(buf)]
		p.large.Put(&fullBuf)
	default:
		// Don't pool oversized or undersized buffers
		// They will be garbage collected normally
		return
	}
}

// =============================================================================
// Global Pool
// =============================================================================

// globalPool is the package-level buffer pool with default configuration.
// It's initialized once and shared across all users of the package.
var globalPool = NewPool(nil)

// Get returns a byte slice of at least the requested size from the global pool.
// This is a convenience function for the common case.
//
// Usage:
//
//	buf := bufpool.Get(size)
//	defer bufpool.Put(buf)
//	// ... use buf ...
func Get(size int) []byte {
	return globalPool.Get(size)
}

// Put returns a buffer to the global pool.
// Always pair this with Get() using defer to ensure buffers are returned.
//
// Usage:
//
//	buf := bufpool.Get(size)
//	defer bufpool.Put(buf)
func Put(buf []byte) {
	globalPool.Put(buf)
}

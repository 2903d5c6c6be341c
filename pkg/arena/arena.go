// Package arena provides a per-connection allocator with a fixed budget.
//
// Every connection that reaches the parse stage gets a fresh arena. Request
// memory (the raw read copy, parsed header views, resolved paths) is carved
// out of it, and the whole arena is released in one call when the connection
// tears down. The budget bounds how much memory a single request can pin;
// crossing it is the overload signal that turns into a 503 on the wire.
//
// Arenas borrow their backing buffers from pkg/bufpool, so releasing an arena
// returns its memory to the shared tiers instead of the garbage collector.
//
// An Arena is not safe for concurrent use. The event loop owns each arena
// exclusively, which is the only access pattern the server has.
package arena

import (
	"errors"

	"github.com/srdjan/ns-http-server/pkg/bufpool"
)

// DefaultBudget bounds per-connection request memory (64KB).
const DefaultBudget = 64 << 10

// ErrExhausted is returned when an allocation would exceed the arena budget.
var ErrExhausted = errors.New("arena budget exhausted")

// Arena is a budgeted allocator tied to one connection's lifetime.
type Arena struct {
	pool   *bufpool.Pool
	budget int
	used   int
	bufs   [][]byte
}

// New creates an arena drawing from the global buffer pool.
// A budget <= 0 falls back to DefaultBudget.
func New(budget int) *Arena {
	return NewWithPool(nil, budget)
}

// NewWithPool creates an arena drawing from the given pool.
// A nil pool means the global pool; a budget <= 0 falls back to DefaultBudget.
func NewWithPool(pool *bufpool.Pool, budget int) *Arena {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Arena{
		pool:   pool,
		budget: budget,
		bufs:   make([][]byte, 0, 4),
	}
}

// Alloc returns a slice of exactly size bytes charged against the budget.
// Returns ErrExhausted when the request would push usage past the budget.
func (a *Arena) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, errors.New("negative allocation size")
	}
	if a.used+size > a.budget {
		return nil, ErrExhausted
	}

	buf := a.get(size)
	a.used += size
	a.bufs = append(a.bufs, buf)
	return buf[:size], nil
}

// Copy allocates and fills a slice with a copy of src.
// The parser uses this to give request views stable backing memory that
// outlives the per-tick receive buffer.
func (a *Arena) Copy(src []byte) ([]byte, error) {
	dst, err := a.Alloc(len(src))
	if err != nil {
		return nil, err
	}
	copy(dst, src)
	return dst, nil
}

// Used reports bytes charged so far.
func (a *Arena) Used() int {
	if a == nil {
		return 0
	}
	return a.used
}

// Budget reports the configured limit.
func (a *Arena) Budget() int {
	if a == nil {
		return 0
	}
	return a.budget
}

// Release returns every buffer to the pool. Safe to call on a nil arena and
// safe to call more than once; only the first call does work. The slices
// handed out by Alloc must not be touched afterwards.
func (a *Arena) Release() {
	if a == nil || a.bufs == nil {
		return
	}
	for _, buf := range a.bufs {
		a.put(buf)
	}
	a.bufs = nil
	a.used = 0
}

func (a *Arena) get(size int) []byte {
	if a.pool != nil {
		return a.pool.Get(size)
	}
	return bufpool.Get(size)
}

func (a *Arena) put(buf []byte) {
	if a.pool != nil {
		a.pool.Put(buf)
		return
	}
	bufpool.Put(buf)
}

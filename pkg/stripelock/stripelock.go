// Package stripelock provides a fixed-size table of mutexes keyed by hash,
// so that writers contending on different keys never block each other
// while writers on the same key are still serialized. This is the
// per-path locking spec §4.4 requires for the symbol store's atomic
// whole-file replacement, and the per-document write lock of the BM25
// index (whose buckets each carry their own RWMutex).
package stripelock

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Table is a striped set of mutexes. The zero value is not usable; use
// New.
type Table struct {
	locks []sync.Mutex
}

// New returns a Table with n stripes. n is rounded up to a power of two
// for cheap masking.
func New(n int) *Table {
	if n < 1 {
		n = 1
	}
	size := 1
	for size < n {
		size <<= 1
	}
	return &Table{locks: make([]sync.Mutex, size)}
}

func (t *Table) index(key string) uint64 {
	return xxhash.Sum64String(key) & uint64(len(t.locks)-1)
}

// Lock acquires the stripe for key.
func (t *Table) Lock(key string) {
	t.locks[t.index(key)].Lock()
}

// Unlock releases the stripe for key.
func (t *Table) Unlock(key string) {
	t.locks[t.index(key)].Unlock()
}

// WithLock runs fn while holding key's stripe.
func (t *Table) WithLock(key string, fn func()) {
	t.Lock(key)
	defer t.Unlock(key)
	fn()
}

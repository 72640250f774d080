// Package lru is the LRU eviction manager (C5). It tracks per-file access
// recency and, once memory_bytes exceeds max_bytes * threshold, pops the
// least-recently-used file and asks the store to drop it entirely.
// Eviction is triggered after every write and by a dedicated background
// tick, matching spec §4.5.
package lru

import (
	"log/slog"
	"math"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryStore is the subset of the symbol store the eviction manager
// needs: a current memory estimate, and a way to drop a whole file.
type MemoryStore interface {
	MemoryBytes() int64
	RemoveFile(path string)
}

// Manager drives recency tracking and threshold-triggered eviction. It
// does not use golang-lru's eviction callback: eviction is driven
// explicitly by checkAndEvict popping the least-recent entry and calling
// store.RemoveFile, which avoids any reentrancy between the cache's own
// eviction hook and the store removing entries on its own.
type Manager struct {
	cache     *lru.Cache[string, struct{}]
	maxBytes  int64
	threshold float64
	store     MemoryStore
	logger    *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// trackingCapacity bounds only the recency-tracking structure itself
// (not the budget); it is sized far above any realistic repository so
// that golang-lru never evicts on its own — all eviction is
// budget-driven via checkAndEvict.
const trackingCapacity = 1 << 20

// New returns a Manager enforcing maxBytes * threshold against store's
// memory estimate, with a background sweep every tickInterval.
func New(maxBytes int64, threshold float64, store MemoryStore, tickInterval time.Duration, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New[string, struct{}](trackingCapacity)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cache:     cache,
		maxBytes:  maxBytes,
		threshold: threshold,
		store:     store,
		logger:    logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}

	if tickInterval > 0 {
		go m.tickLoop(tickInterval)
	} else {
		close(m.doneCh)
	}
	return m, nil
}

func (m *Manager) tickLoop(interval time.Duration) {
	defer close(m.doneCh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.CheckNow()
		case <-m.stopCh:
			return
		}
	}
}

// Close stops the background sweep goroutine.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	<-m.doneCh
}

// Touch records path as the most-recently-used entry, inserting it if
// new. Call this from both reads and writes.
func (m *Manager) Touch(path string) {
	m.cache.Add(path, struct{}{})
}

// Forget removes path from recency tracking, without side effects on
// the store. The store calls this as part of its own remove_file so the
// tracker never holds a stale entry.
func (m *Manager) Forget(path string) {
	m.cache.Remove(path)
}

// budget returns the byte threshold above which eviction runs.
func (m *Manager) budget() int64 {
	return int64(math.Round(float64(m.maxBytes) * m.threshold))
}

// CheckNow runs one eviction pass: while memory_bytes exceeds the
// budget, pop the least-recently-used path and remove it from the
// store. Terminates in O(files) steps (spec P5) because each iteration
// either removes an entry or finds the tracker empty.
func (m *Manager) CheckNow() {
	budget := m.budget()
	for m.store.MemoryBytes() > budget {
		key, _, ok := m.cache.RemoveOldest()
		if !ok {
			return
		}
		m.store.RemoveFile(key)
	}
}

// Len returns the number of paths currently tracked.
func (m *Manager) Len() int {
	return m.cache.Len()
}

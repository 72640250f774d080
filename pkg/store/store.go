// Package store is the symbol store (C4): the central concurrent
// map-of-maps holding symbols, references, per-file metadata and memory
// accounting. Writers on the same path are serialized by a striped
// per-path lock. The maps themselves are guarded by one store-wide
// RWMutex, held only while each map update or lookup runs, so readers and
// writers do block each other for those short sections. The strict write
// order for whole-file replacement is spec §4.4's documented sequence:
// bm25.remove(old) -> delete old symbols -> insert new symbols ->
// bm25.add(new).
package store

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/codecortex/codecortex/pkg/bm25"
	"github.com/codecortex/codecortex/pkg/model"
	"github.com/codecortex/codecortex/pkg/stripelock"
)

// lruTracker is the subset of *lru.Manager the store needs, expressed as
// an interface so this package does not import pkg/lru (which in turn
// depends on the store's MemoryStore interface — wiring happens at
// construction time in the caller, cmd/codecortex).
type lruTracker interface {
	Touch(path string)
	Forget(path string)
	CheckNow()
}

// Store is the concurrent aggregate described in spec §3.
type Store struct {
	pathLocks *stripelock.Table

	mu         sync.RWMutex
	byName     map[string]map[uint64]bool
	byID       map[uint64]*model.Symbol
	refsByName map[string][]model.Reference
	files      map[string]*model.FileInfo

	// refNamesByFile indexes, per path, which reference names that file
	// contributed — an internal space/time tradeoff (spec §9's open
	// question on reference keying) that avoids scanning every name in
	// refsByName on file removal.
	refNamesByFile map[string]map[string]bool

	memoryBytes int64

	bm25 *bm25.Index
	lru  lruTracker
}

const numStripes = 256

// New returns an empty Store backed by bmIndex for full-text search.
func New(bmIndex *bm25.Index) *Store {
	return &Store{
		pathLocks:      stripelock.New(numStripes),
		byName:         make(map[string]map[uint64]bool),
		byID:           make(map[uint64]*model.Symbol),
		refsByName:     make(map[string][]model.Reference),
		files:          make(map[string]*model.FileInfo),
		refNamesByFile: make(map[string]map[string]bool),
		bm25:           bmIndex,
	}
}

// AttachLRU wires the eviction manager after construction, breaking the
// natural import cycle (the manager needs the store as its MemoryStore).
func (s *Store) AttachLRU(tracker lruTracker) {
	s.lru = tracker
}

// InsertFile atomically replaces whatever is indexed for fi.Path with the
// given symbols, references and content (spec §4.4).
func (s *Store) InsertFile(fi *model.FileInfo, symbols []model.Symbol, references []model.Reference) {
	s.pathLocks.WithLock(fi.Path, func() {
		s.mu.RLock()
		old, existed := s.files[fi.Path]
		s.mu.RUnlock()

		if existed {
			s.bm25.RemoveDocument(fi.Path)
			s.mu.Lock()
			s.deleteSymbolsAndRefsLocked(old)
			s.mu.Unlock()
			atomic.AddInt64(&s.memoryBytes, -old.RetainedBytes())
		}

		s.mu.Lock()
		ids := s.insertSymbolsLocked(symbols)
		s.insertReferencesLocked(fi.Path, references)
		fi.SymbolIDs = ids
		fi.ReferenceCount = len(references)
		s.files[fi.Path] = fi
		s.mu.Unlock()

		atomic.AddInt64(&s.memoryBytes, fi.RetainedBytes())
		s.bm25.AddDocument(fi.Path, string(fi.Content))

		if s.lru != nil {
			s.lru.Touch(fi.Path)
		}
	})

	// The eviction pass runs after the path stripe is released: it may
	// remove fi.Path itself or a path on the same stripe, and RemoveFile
	// takes that stripe.
	if s.lru != nil {
		s.lru.CheckNow()
	}
}

// RemoveFile deletes path's FileInfo, its symbols, and its references,
// and drops it from the BM25 index and memory accounting (spec §4.4).
func (s *Store) RemoveFile(path string) {
	s.pathLocks.WithLock(path, func() {
		s.mu.Lock()
		old, ok := s.files[path]
		if !ok {
			s.mu.Unlock()
			return
		}
		s.deleteSymbolsAndRefsLocked(old)
		delete(s.files, path)
		s.mu.Unlock()

		s.bm25.RemoveDocument(path)
		atomic.AddInt64(&s.memoryBytes, -old.RetainedBytes())
		if s.lru != nil {
			s.lru.Forget(path)
		}
	})
}

// insertSymbolsLocked must be called while holding mu. It returns the set
// of ids just inserted, for the caller's FileInfo.SymbolIDs.
func (s *Store) insertSymbolsLocked(symbols []model.Symbol) map[uint64]bool {
	ids := make(map[uint64]bool, len(symbols))
	for i := range symbols {
		sym := symbols[i]
		s.byID[sym.ID] = &sym
		set := s.byName[sym.Name]
		if set == nil {
			set = make(map[uint64]bool)
			s.byName[sym.Name] = set
		}
		set[sym.ID] = true
		ids[sym.ID] = true
	}
	return ids
}

// insertReferencesLocked must be called while holding mu.
func (s *Store) insertReferencesLocked(path string, refs []model.Reference) {
	if len(refs) == 0 {
		return
	}
	names := s.refNamesByFile[path]
	if names == nil {
		names = make(map[string]bool)
		s.refNamesByFile[path] = names
	}
	for _, ref := range refs {
		s.refsByName[ref.SymbolName] = append(s.refsByName[ref.SymbolName], ref)
		names[ref.SymbolName] = true
	}
}

// deleteSymbolsAndRefsLocked removes every symbol and reference belonging
// to old, but leaves s.files untouched — callers decide whether the path
// is being replaced (InsertFile) or fully removed (RemoveFile). Must be
// called while holding mu.
func (s *Store) deleteSymbolsAndRefsLocked(old *model.FileInfo) {
	for id := range old.SymbolIDs {
		sym, ok := s.byID[id]
		delete(s.byID, id)
		if !ok {
			continue
		}
		if set := s.byName[sym.Name]; set != nil {
			delete(set, id)
			if len(set) == 0 {
				delete(s.byName, sym.Name)
			}
		}
	}

	if names, ok := s.refNamesByFile[old.Path]; ok {
		for name := range names {
			list := s.refsByName[name]
			filtered := list[:0:0]
			for _, r := range list {
				if r.Location.Path != old.Path {
					filtered = append(filtered, r)
				}
			}
			if len(filtered) == 0 {
				delete(s.refsByName, name)
			} else {
				s.refsByName[name] = filtered
			}
		}
		delete(s.refNamesByFile, old.Path)
	}
}

// GetSymbolsByName returns every symbol with exactly this name.
func (s *Store) GetSymbolsByName(name string) []model.Symbol {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byName[name]
	out := make([]model.Symbol, 0, len(ids))
	for id := range ids {
		if sym, ok := s.byID[id]; ok {
			out = append(out, *sym)
		}
	}
	return out
}

// GetSymbolsByPrefix scans names case-insensitively; kind, if non-empty,
// filters the result further.
func (s *Store) GetSymbolsByPrefix(prefix string, kind model.Kind) []model.Symbol {
	lowerPrefix := strings.ToLower(prefix)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Symbol
	for name, ids := range s.byName {
		if !strings.HasPrefix(strings.ToLower(name), lowerPrefix) {
			continue
		}
		for id := range ids {
			sym, ok := s.byID[id]
			if !ok {
				continue
			}
			if kind != "" && sym.Kind != kind {
				continue
			}
			out = append(out, *sym)
		}
	}
	return out
}

// SymbolsForFile returns every symbol defined in path, used by the cache
// writer (spec §4.7) to snapshot a file's contribution to the store.
func (s *Store) SymbolsForFile(path string) []model.Symbol {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fi, ok := s.files[path]
	if !ok {
		return nil
	}
	out := make([]model.Symbol, 0, len(fi.SymbolIDs))
	for id := range fi.SymbolIDs {
		if sym, ok := s.byID[id]; ok {
			out = append(out, *sym)
		}
	}
	return out
}

// ReferencesForFile returns every reference whose location is in path.
func (s *Store) ReferencesForFile(path string) []model.Reference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := s.refNamesByFile[path]
	var out []model.Reference
	for name := range names {
		for _, ref := range s.refsByName[name] {
			if ref.Location.Path == path {
				out = append(out, ref)
			}
		}
	}
	return out
}

// GetReferences returns every reference recorded against name.
func (s *Store) GetReferences(name string) []model.Reference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.refsByName[name]
	out := make([]model.Reference, len(list))
	copy(out, list)
	return out
}

// FileInfo returns a copy of path's metadata, if indexed.
func (s *Store) FileInfo(path string) (model.FileInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fi, ok := s.files[path]
	if !ok {
		return model.FileInfo{}, false
	}
	return *fi, true
}

// IterFiles returns a point-in-time snapshot of every indexed file.
func (s *Store) IterFiles() []model.FileInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.FileInfo, 0, len(s.files))
	for _, fi := range s.files {
		out = append(out, *fi)
	}
	return out
}

// TotalSymbols returns the number of distinct symbol ids indexed.
func (s *Store) TotalSymbols() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// TotalFiles returns the number of indexed files.
func (s *Store) TotalFiles() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// RestoreFile installs a file's symbols and references directly, without
// touching the BM25 index (the cache loader restores BM25 state
// wholesale in one step — spec §4.7) and without triggering an eviction
// check. No eviction pass runs as part of a restore; bootstrap restores
// the cache before it attaches the LRU manager, so restored files enter
// recency tracking only when the pipeline later touches or reindexes them.
func (s *Store) RestoreFile(fi *model.FileInfo, symbols []model.Symbol, references []model.Reference) {
	s.pathLocks.WithLock(fi.Path, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		ids := s.insertSymbolsLocked(symbols)
		s.insertReferencesLocked(fi.Path, references)
		fi.SymbolIDs = ids
		fi.ReferenceCount = len(references)
		s.files[fi.Path] = fi
		atomic.AddInt64(&s.memoryBytes, fi.RetainedBytes())
		if s.lru != nil {
			s.lru.Touch(fi.Path)
		}
	})
}

// TouchFile refreshes path's LRU recency without altering its content,
// used by the pipeline's hash-match skip path (spec §4.6 step 3).
func (s *Store) TouchFile(path string) {
	if s.lru != nil {
		s.lru.Touch(path)
	}
}

// RefreshContent replaces path's retained source bytes without touching
// its symbols, references or BM25 document. The pipeline's hash-match
// skip path calls this: re-extraction is skipped because the content
// hash is unchanged, but a warm start from the binary cache (spec
// §4.7) never populates Content, so a later hash-match would otherwise
// leave get_symbol/code_search reading a nil slice forever.
func (s *Store) RefreshContent(path string, content []byte) {
	s.pathLocks.WithLock(path, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		fi, ok := s.files[path]
		if !ok {
			return
		}
		before := fi.RetainedBytes()
		fi.Content = content
		atomic.AddInt64(&s.memoryBytes, fi.RetainedBytes()-before)
	})
}

// MemoryBytes returns the running retained-bytes estimate (spec §4.4).
// Implements lru.MemoryStore.
func (s *Store) MemoryBytes() int64 {
	return atomic.LoadInt64(&s.memoryBytes)
}

// CheckInvariants validates I1 (by_name and by_id agree), I2 and I3
// (files and by_id agree) and that memory_bytes has not gone negative,
// and returns a description of the first violation found, or "" if none.
// The other invariants are not checked. The tests assert an empty result;
// nothing calls it at runtime.
func (s *Store) CheckInvariants() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for name, ids := range s.byName {
		for id := range ids {
			sym, ok := s.byID[id]
			if !ok {
				return "I1: by_name references id absent from by_id"
			}
			if sym.Name != name {
				return "I1: by_id symbol name does not match by_name key"
			}
		}
	}
	for id, sym := range s.byID {
		set := s.byName[sym.Name]
		if set == nil || !set[id] {
			return "I1: by_id symbol missing from by_name"
		}
	}

	for path, fi := range s.files {
		for id := range fi.SymbolIDs {
			sym, ok := s.byID[id]
			if !ok || sym.Location.Path != path {
				return "I2: file symbol_ids inconsistent with by_id"
			}
		}
	}
	for id, sym := range s.byID {
		fi, ok := s.files[sym.Location.Path]
		if !ok || !fi.SymbolIDs[id] {
			return "I3: symbol references a file absent from files"
		}
	}

	if s.memoryBytes < 0 {
		return "I4: memory_bytes underflowed"
	}

	return ""
}

// Package bm25 implements the BM25 full-text index (C3): a classical
// Okapi BM25 inverted index over file-as-document, tokenized with
// camelCase/snake_case awareness. Mutations are serialized per document
// (via a striped lock); reads run over per-term buckets so a search can
// proceed in parallel with indexing an unrelated document.
package bm25

import (
	"math"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/codecortex/codecortex/pkg/stripelock"
)

const (
	k1 = 1.2
	b  = 0.75

	numBuckets = 64
)

type bucket struct {
	mu       sync.RWMutex
	postings map[string]map[string]int // term -> path -> term frequency
	df       map[string]int            // term -> document frequency
}

// Index is the BM25 inverted index.
type Index struct {
	buckets []*bucket
	docLock *stripelock.Table

	statsMu     sync.Mutex
	docLens     map[string]int
	totalTokens int64
	totalDocs   int
}

// New returns an empty Index.
func New() *Index {
	buckets := make([]*bucket, numBuckets)
	for i := range buckets {
		buckets[i] = &bucket{postings: make(map[string]map[string]int), df: make(map[string]int)}
	}
	return &Index{
		buckets: buckets,
		docLock: stripelock.New(numBuckets),
		docLens: make(map[string]int),
	}
}

func (idx *Index) bucketFor(term string) *bucket {
	return idx.buckets[xxhash.Sum64String(term)%uint64(len(idx.buckets))]
}

// AddDocument tokenizes content and indexes it under path, replacing any
// prior document at that path.
func (idx *Index) AddDocument(path, content string) {
	idx.docLock.WithLock(path, func() {
		idx.removeLocked(path)

		tokens := Tokenize(content)
		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}

		idx.statsMu.Lock()
		idx.docLens[path] = len(tokens)
		idx.totalTokens += int64(len(tokens))
		idx.totalDocs++
		idx.statsMu.Unlock()

		for term, freq := range tf {
			bkt := idx.bucketFor(term)
			bkt.mu.Lock()
			docs := bkt.postings[term]
			if docs == nil {
				docs = make(map[string]int)
				bkt.postings[term] = docs
			}
			docs[path] = freq
			bkt.df[term] = len(docs)
			bkt.mu.Unlock()
		}
	})
}

// RemoveDocument deletes path from the index, if present.
func (idx *Index) RemoveDocument(path string) {
	idx.docLock.WithLock(path, func() {
		idx.removeLocked(path)
	})
}

// removeLocked must be called while holding path's document stripe.
func (idx *Index) removeLocked(path string) {
	idx.statsMu.Lock()
	if dl, ok := idx.docLens[path]; ok {
		delete(idx.docLens, path)
		idx.totalTokens -= int64(dl)
		idx.totalDocs--
	}
	idx.statsMu.Unlock()

	for _, bkt := range idx.buckets {
		bkt.mu.Lock()
		for term, docs := range bkt.postings {
			if _, ok := docs[path]; !ok {
				continue
			}
			delete(docs, path)
			if len(docs) == 0 {
				delete(bkt.postings, term)
				delete(bkt.df, term)
			} else {
				bkt.df[term] = len(docs)
			}
		}
		bkt.mu.Unlock()
	}
}

// ScoredDoc is one search hit.
type ScoredDoc struct {
	Path  string
	Score float64
}

// Search tokenizes query and returns up to k documents ranked by BM25
// score, descending. Snippet rendering is the caller's responsibility
// (the index keeps document statistics, not raw content — spec §4.3's
// stats list does not include content, and the symbol store already
// retains it keyed by the same path).
func (idx *Index) Search(query string, k int) []ScoredDoc {
	seen := make(map[string]bool)
	var terms []string
	for _, t := range Tokenize(query) {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return nil
	}

	avg, total := idx.avgAndTotalLocked()
	if total == 0 {
		return nil
	}

	scores := make(map[string]float64)
	for _, term := range terms {
		bkt := idx.bucketFor(term)
		bkt.mu.RLock()
		docs := bkt.postings[term]
		df := bkt.df[term]
		if df == 0 {
			bkt.mu.RUnlock()
			continue
		}
		idf := math.Log(1 + (float64(total)-float64(df)+0.5)/(float64(df)+0.5))
		for path, tf := range docs {
			dl := idx.docLen(path)
			denom := float64(tf) + k1*(1-b+b*float64(dl)/avg)
			scores[path] += idf * (float64(tf) * (k1 + 1)) / denom
		}
		bkt.mu.RUnlock()
	}

	results := make([]ScoredDoc, 0, len(scores))
	for path, score := range scores {
		results = append(results, ScoredDoc{Path: path, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Path < results[j].Path
	})
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}

func (idx *Index) docLen(path string) int {
	idx.statsMu.Lock()
	defer idx.statsMu.Unlock()
	return idx.docLens[path]
}

func (idx *Index) avgAndTotalLocked() (float64, int) {
	idx.statsMu.Lock()
	defer idx.statsMu.Unlock()
	if idx.totalDocs == 0 {
		return 0, 0
	}
	return float64(idx.totalTokens) / float64(idx.totalDocs), idx.totalDocs
}

// TotalDocs returns the number of indexed documents.
func (idx *Index) TotalDocs() int {
	idx.statsMu.Lock()
	defer idx.statsMu.Unlock()
	return idx.totalDocs
}

// DocFrequency returns how many documents contain term, for tests that
// assert BM25 monotonicity (P6).
func (idx *Index) DocFrequency(term string) int {
	bkt := idx.bucketFor(term)
	bkt.mu.RLock()
	defer bkt.mu.RUnlock()
	return bkt.df[term]
}

// State is the serializable snapshot persisted by the binary cache
// (spec §4.7's bm25_state tuple).
type State struct {
	AvgDocLen float64
	TotalDocs int
	DocLens   map[string]int
	Postings  map[string]map[string]int
}

// Snapshot returns a State suitable for serialization.
func (idx *Index) Snapshot() State {
	idx.statsMu.Lock()
	docLens := make(map[string]int, len(idx.docLens))
	for k, v := range idx.docLens {
		docLens[k] = v
	}
	avg, _ := idx.avgAndTotalLockedNoLock()
	total := idx.totalDocs
	idx.statsMu.Unlock()

	postings := make(map[string]map[string]int)
	for _, bkt := range idx.buckets {
		bkt.mu.RLock()
		for term, docs := range bkt.postings {
			cp := make(map[string]int, len(docs))
			for p, f := range docs {
				cp[p] = f
			}
			postings[term] = cp
		}
		bkt.mu.RUnlock()
	}

	return State{AvgDocLen: avg, TotalDocs: total, DocLens: docLens, Postings: postings}
}

// avgAndTotalLockedNoLock computes the average assuming statsMu is
// already held.
func (idx *Index) avgAndTotalLockedNoLock() (float64, int) {
	if idx.totalDocs == 0 {
		return 0, 0
	}
	return float64(idx.totalTokens) / float64(idx.totalDocs), idx.totalDocs
}

// Restore rebuilds the index from a previously snapshotted State.
func Restore(s State) *Index {
	idx := New()
	idx.docLens = make(map[string]int, len(s.DocLens))
	for k, v := range s.DocLens {
		idx.docLens[k] = v
		idx.totalTokens += int64(v)
	}
	idx.totalDocs = s.TotalDocs

	for term, docs := range s.Postings {
		bkt := idx.bucketFor(term)
		cp := make(map[string]int, len(docs))
		for p, f := range docs {
			cp[p] = f
		}
		bkt.postings[term] = cp
		bkt.df[term] = len(cp)
	}
	return idx
}

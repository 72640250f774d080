package bm25

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeCamelAndSnakeCase(t *testing.T) {
	tokens := Tokenize("parseHTTPRequest")
	assert.Contains(t, tokens, "parse")
	assert.Contains(t, tokens, "http")
	assert.Contains(t, tokens, "request")
	assert.Contains(t, tokens, "parsehttprequest")

	tokens = Tokenize("max_retry_count")
	assert.Contains(t, tokens, "max")
	assert.Contains(t, tokens, "retry")
	assert.Contains(t, tokens, "count")
	assert.Contains(t, tokens, "maxretrycount")
}

func TestAddSearchRemove(t *testing.T) {
	idx := New()
	idx.AddDocument("a.go", "func greet() { return greeting }")
	idx.AddDocument("b.go", "func farewell() { return nothing }")

	results := idx.Search("greet", 10)
	require.Len(t, results, 1)
	assert.Equal(t, "a.go", results[0].Path)
	assert.Greater(t, results[0].Score, 0.0)

	idx.RemoveDocument("a.go")
	assert.Empty(t, idx.Search("greet", 10))
	assert.Equal(t, 1, idx.TotalDocs())
}

func TestBM25Monotonicity(t *testing.T) {
	idx := New()
	before := idx.DocFrequency("widget")
	idx.AddDocument("a.go", "widget factory")
	after := idx.DocFrequency("widget")
	assert.Greater(t, after, before)

	idx.RemoveDocument("a.go")
	assert.Less(t, idx.DocFrequency("widget"), after)
}

func TestAddDocumentReplacesExisting(t *testing.T) {
	idx := New()
	idx.AddDocument("a.go", "alpha beta")
	idx.AddDocument("a.go", "gamma delta")

	assert.Empty(t, idx.Search("alpha", 10))
	results := idx.Search("gamma", 10)
	require.Len(t, results, 1)
	assert.Equal(t, 1, idx.TotalDocs())
}

func TestConcurrentAddDifferentDocuments(t *testing.T) {
	idx := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			idx.AddDocument(fmt.Sprintf("doc_%d", n), "shared token unique content")
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, idx.TotalDocs())
}

func TestSnapshotRestore(t *testing.T) {
	idx := New()
	idx.AddDocument("a.go", "greet greeting greetings")
	snap := idx.Snapshot()

	restored := Restore(snap)
	results := restored.Search("greet", 10)
	require.Len(t, results, 1)
	assert.Equal(t, "a.go", results[0].Path)
}

// Package parser wraps github.com/smacker/go-tree-sitter with a
// per-language pool of parsers and a cache of compiled queries, so that
// concurrent extraction across many files never contends on a single
// parser instance or recompiles a query bundle per file.
package parser

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codecortex/codecortex/pkg/langs"
)

// parserPool is a small free-list of ready-to-use parsers for one language,
// grown lazily up to maxSize.
type parserPool struct {
	mu      sync.Mutex
	grammar *sitter.Language
	free    []*sitter.Parser
	maxSize int
}

func newParserPool(grammar *sitter.Language, maxSize int) *parserPool {
	return &parserPool{grammar: grammar, maxSize: maxSize}
}

func (p *parserPool) get() *sitter.Parser {
	p.mu.Lock()
	if n := len(p.free); n > 0 {
		pr := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		return pr
	}
	p.mu.Unlock()

	pr := sitter.NewParser()
	pr.SetLanguage(p.grammar)
	return pr
}

func (p *parserPool) put(pr *sitter.Parser) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) >= p.maxSize {
		return
	}
	p.free = append(p.free, pr)
}

// Manager hands out parse trees for a given language, reusing parser
// instances and caching compiled queries across calls.
type Manager struct {
	poolSize int

	poolsMu sync.RWMutex
	pools   map[string]*parserPool

	queriesMu sync.RWMutex
	queries   map[queryKey]*sitter.Query
}

type queryKey struct {
	language string
	kind     queryKind
}

type queryKind int

const (
	queryKindSymbols queryKind = iota
	queryKindReferences
)

// NewManager returns a Manager whose per-language pools grow up to
// poolSize parsers before further instances are discarded instead of
// pooled.
func NewManager(poolSize int) *Manager {
	return &Manager{
		poolSize: poolSize,
		pools:    make(map[string]*parserPool),
		queries:  make(map[queryKey]*sitter.Query),
	}
}

func (m *Manager) poolFor(b *langs.Bundle) *parserPool {
	m.poolsMu.RLock()
	p, ok := m.pools[b.Name]
	m.poolsMu.RUnlock()
	if ok {
		return p
	}

	m.poolsMu.Lock()
	defer m.poolsMu.Unlock()
	if p, ok := m.pools[b.Name]; ok {
		return p
	}
	p = newParserPool(b.Grammar, m.poolSize)
	m.pools[b.Name] = p
	return p
}

// Parse parses source with the language's grammar and returns the
// resulting tree. Callers must call tree.Close() when done.
func (m *Manager) Parse(ctx context.Context, b *langs.Bundle, source []byte) (*sitter.Tree, error) {
	pool := m.poolFor(b)
	pr := pool.get()
	defer pool.put(pr)

	tree, err := pr.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parser: parse %s: %w", b.Name, err)
	}
	return tree, nil
}

func (m *Manager) query(b *langs.Bundle, kind queryKind) (*sitter.Query, error) {
	key := queryKey{language: b.Name, kind: kind}

	m.queriesMu.RLock()
	q, ok := m.queries[key]
	m.queriesMu.RUnlock()
	if ok {
		return q, nil
	}

	m.queriesMu.Lock()
	defer m.queriesMu.Unlock()
	if q, ok := m.queries[key]; ok {
		return q, nil
	}

	var source string
	switch kind {
	case queryKindSymbols:
		source = b.SymbolPatterns
	case queryKindReferences:
		source = b.ReferencePatterns
	}

	q, err := sitter.NewQuery([]byte(source), b.Grammar)
	if err != nil {
		return nil, fmt.Errorf("parser: compile %s query for %s: %w", queryKindName(kind), b.Name, err)
	}
	m.queries[key] = q
	return q, nil
}

// SymbolQuery returns the compiled symbol-pattern query for a language,
// compiling and caching it on first use.
func (m *Manager) SymbolQuery(b *langs.Bundle) (*sitter.Query, error) {
	return m.query(b, queryKindSymbols)
}

// ReferenceQuery returns the compiled reference-pattern query for a
// language, compiling and caching it on first use.
func (m *Manager) ReferenceQuery(b *langs.Bundle) (*sitter.Query, error) {
	return m.query(b, queryKindReferences)
}

func queryKindName(k queryKind) string {
	if k == queryKindSymbols {
		return "symbol"
	}
	return "reference"
}

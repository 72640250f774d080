// Package query is the read-only query surface (C9): seven pure
// operations over a *store.Store plus, for code_search, a *bm25.Index.
// None of these mutate the store except index_code, which simply
// delegates to the indexing pipeline.
package query

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codecortex/codecortex/pkg/bm25"
	"github.com/codecortex/codecortex/pkg/model"
	"github.com/codecortex/codecortex/pkg/pipeline"
	"github.com/codecortex/codecortex/pkg/store"
	"github.com/codecortex/codecortex/pkg/util"
)

// Service wires the store, BM25 index and pipeline that every query
// operation reads from or, in IndexCode's case, drives.
type Service struct {
	store    *store.Store
	bm25     *bm25.Index
	pipeline *pipeline.Pipeline

	// sources, when non-nil, serves get_symbol's include_source slices
	// via mmap'd random access instead of the store's retained content
	// bytes — an O(1) byte-offset fetch that avoids holding every
	// queried file's full content in the request path.
	sources util.FileCache
}

// New returns a Service over the given components. sources may be nil,
// in which case GetSymbol falls back to the store's retained content.
func New(st *store.Store, bmIdx *bm25.Index, p *pipeline.Pipeline, sources util.FileCache) *Service {
	return &Service{store: st, bm25: bmIdx, pipeline: p, sources: sources}
}

// IndexCode runs the indexing pipeline over path and returns its summary.
func (s *Service) IndexCode(ctx context.Context, path string) (*pipeline.Summary, error) {
	return s.pipeline.Run(ctx, path)
}

// GetSymbol returns every symbol named exactly name. When includeSource
// is true, each result's Signature is left untouched but the raw source
// slice (file content[start_byte:end_byte]) is returned alongside it.
func (s *Service) GetSymbol(name string, includeSource bool) []SymbolResult {
	symbols := s.store.GetSymbolsByName(name)
	out := make([]SymbolResult, 0, len(symbols))
	for _, sym := range symbols {
		res := SymbolResult{Symbol: sym}
		if includeSource {
			res.Source = s.sourceSlice(sym.Location)
		}
		out = append(out, res)
	}
	return out
}

// SymbolResult pairs a Symbol with its optional source slice.
type SymbolResult struct {
	model.Symbol
	Source string `json:"source,omitempty"`
}

// sourceSlice fetches loc's byte range, preferring the mmap'd FileCache
// when available and falling back to the store's retained content.
func (s *Service) sourceSlice(loc model.Location) string {
	if s.sources != nil {
		if code, err := s.sources.FetchCode(loc.Path, loc.StartByte, loc.EndByte); err == nil {
			return code
		}
	}
	fi, ok := s.store.FileInfo(loc.Path)
	if !ok {
		return ""
	}
	return sliceContent(fi.Content, loc.StartByte, loc.EndByte)
}

func sliceContent(content []byte, start, end uint32) string {
	if int(end) > len(content) || start > end {
		return ""
	}
	return string(content[start:end])
}

// ReferencesResult is get_symbol_references's return shape.
type ReferencesResult struct {
	References []model.Reference `json:"references"`
	Total      int                `json:"total"`
}

// GetSymbolReferences returns every reference to name plus its count.
func (s *Service) GetSymbolReferences(name string) ReferencesResult {
	refs := s.store.GetReferences(name)
	return ReferencesResult{References: refs, Total: len(refs)}
}

// FindSymbols implements find_symbols: a case-insensitive prefix scan
// over symbol names, optionally filtered by kind, with exact matches
// ranked before prefix matches and shorter names before longer ones
// within each group. §4.9.4 describes a bare identifier as triggering
// "exact match", but its own worked example (spec.md S2: querying
// "greet" over symbols "greet"/"greeting" returns both, exact first)
// shows prefix candidates are always unioned in — ranking, not
// candidate selection, is what distinguishes bare identifiers.
func (s *Service) FindSymbols(query string, kind model.Kind) []model.Symbol {
	candidates := s.store.GetSymbolsByPrefix(query, kind)

	lowerQuery := strings.ToLower(query)
	sort.SliceStable(candidates, func(i, j int) bool {
		iExact := strings.ToLower(candidates[i].Name) == lowerQuery
		jExact := strings.ToLower(candidates[j].Name) == lowerQuery
		if iExact != jExact {
			return iExact
		}
		if len(candidates[i].Name) != len(candidates[j].Name) {
			return len(candidates[i].Name) < len(candidates[j].Name)
		}
		return candidates[i].Name < candidates[j].Name
	})
	return candidates
}

// SearchHit is one code_search result.
type SearchHit struct {
	Path     string  `json:"path"`
	Language string  `json:"language"`
	Score    float64 `json:"score"`
	Snippet  string  `json:"snippet"`
}

// CodeSearch delegates ranking to bm25.Search, then composes a snippet
// for each survivor from the store's retained file content (spec §4.3).
func (s *Service) CodeSearch(queryText string, maxResults, contextLines int) []SearchHit {
	if maxResults <= 0 {
		maxResults = 10
	}
	scored := s.bm25.Search(queryText, maxResults)
	terms := make(map[string]bool)
	for _, t := range bm25.Tokenize(queryText) {
		terms[t] = true
	}

	hits := make([]SearchHit, 0, len(scored))
	for _, doc := range scored {
		fi, ok := s.store.FileInfo(doc.Path)
		if !ok {
			continue
		}
		hits = append(hits, SearchHit{
			Path:     doc.Path,
			Language: fi.Language,
			Score:    doc.Score,
			Snippet:  snippetFor(fi.Content, terms, contextLines),
		})
	}
	return hits
}

// snippetFor finds the earliest line containing any of terms and
// returns it plus contextLines of surrounding context on each side.
func snippetFor(content []byte, terms map[string]bool, contextLines int) string {
	if len(content) == 0 {
		return ""
	}
	lines := strings.Split(string(content), "\n")
	matchLine := -1
	for i, line := range lines {
		for _, tok := range bm25.Tokenize(line) {
			if terms[tok] {
				matchLine = i
				break
			}
		}
		if matchLine >= 0 {
			break
		}
	}
	if matchLine < 0 {
		return ""
	}
	start := matchLine - contextLines
	if start < 0 {
		start = 0
	}
	end := matchLine + contextLines
	if end >= len(lines) {
		end = len(lines) - 1
	}
	return strings.Join(lines[start:end+1], "\n")
}

// OutlineEntry is one symbol rendered into a file or directory outline.
type OutlineEntry struct {
	Kind      model.Kind `json:"kind"`
	Name      string     `json:"name"`
	StartLine int        `json:"start_line"`
	EndLine   int        `json:"end_line"`
	Signature string     `json:"signature,omitempty"`
}

// KindGroup is one kind's entries within a FileOutline, rendered in
// outlineKindOrder rather than map order.
type KindGroup struct {
	Kind    model.Kind     `json:"kind"`
	Entries []OutlineEntry `json:"entries"`
}

// FileOutline groups one file's symbols by kind in a stable order.
type FileOutline struct {
	Path   string      `json:"path"`
	Groups []KindGroup `json:"groups"`
}

// Kind returns the outline's entries for kind, or nil if that kind has no
// entries. Convenience accessor over the ordered Groups slice.
func (f FileOutline) Kind(kind model.Kind) []OutlineEntry {
	for _, g := range f.Groups {
		if g.Kind == kind {
			return g.Entries
		}
	}
	return nil
}

// outlineKindOrder fixes the rendering order so output is stable across
// runs regardless of map iteration order. Kinds not listed here (none
// currently exist) are appended after the listed ones, in map iteration
// order, so their relative order is not fixed.
var outlineKindOrder = []model.Kind{
	model.KindModule, model.KindImport, model.KindClass, model.KindStruct,
	model.KindInterface, model.KindEnum, model.KindTypeAlias,
	model.KindConstructor, model.KindMethod, model.KindFunction,
	model.KindProperty, model.KindField, model.KindConstant,
	model.KindStatic, model.KindVariable, model.KindMacro, model.KindOther,
}

// GetFileOutline renders filePath's symbols grouped by kind with line
// ranges and signatures (spec §4.9.6).
func (s *Service) GetFileOutline(filePath string) (FileOutline, bool) {
	symbols := s.store.SymbolsForFile(filePath)
	if len(symbols) == 0 {
		if _, ok := s.store.FileInfo(filePath); !ok {
			return FileOutline{}, false
		}
	}
	byKind := make(map[model.Kind][]OutlineEntry)
	for _, sym := range symbols {
		byKind[sym.Kind] = append(byKind[sym.Kind], OutlineEntry{
			Kind:      sym.Kind,
			Name:      sym.Name,
			StartLine: sym.Location.StartLine,
			EndLine:   sym.Location.EndLine,
			Signature: sym.Signature,
		})
	}

	outline := FileOutline{Path: filePath}
	seen := make(map[model.Kind]bool, len(byKind))
	for _, kind := range outlineKindOrder {
		entries, ok := byKind[kind]
		if !ok {
			continue
		}
		seen[kind] = true
		sort.Slice(entries, func(i, j int) bool { return entries[i].StartLine < entries[j].StartLine })
		outline.Groups = append(outline.Groups, KindGroup{Kind: kind, Entries: entries})
	}
	for kind, entries := range byKind {
		if seen[kind] {
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].StartLine < entries[j].StartLine })
		outline.Groups = append(outline.Groups, KindGroup{Kind: kind, Entries: entries})
	}
	return outline, true
}

// DirectoryOutline is a file-by-file grouped listing restricted to the
// requested kinds, plus a total count.
type DirectoryOutline struct {
	Directory string        `json:"directory"`
	Files     []FileOutline `json:"files"`
	Total     int           `json:"total"`
}

// GetDirectoryOutline walks every indexed file under directoryPath and
// emits its outline restricted to includeKinds (spec §4.9.7). An empty
// includeKinds defaults to {class, struct, interface} per the spec.
func (s *Service) GetDirectoryOutline(directoryPath string, includeKinds []model.Kind) DirectoryOutline {
	if len(includeKinds) == 0 {
		includeKinds = []model.Kind{model.KindClass, model.KindStruct, model.KindInterface}
	}
	wanted := make(map[model.Kind]bool, len(includeKinds))
	for _, k := range includeKinds {
		wanted[k] = true
	}

	result := DirectoryOutline{Directory: directoryPath}
	for _, fi := range s.store.IterFiles() {
		if !underDirectory(directoryPath, fi.Path) {
			continue
		}
		full, ok := s.GetFileOutline(fi.Path)
		if !ok {
			continue
		}
		filtered := FileOutline{Path: full.Path}
		count := 0
		for _, g := range full.Groups {
			if !wanted[g.Kind] {
				continue
			}
			filtered.Groups = append(filtered.Groups, g)
			count += len(g.Entries)
		}
		if count == 0 {
			continue
		}
		result.Files = append(result.Files, filtered)
		result.Total += count
	}
	sort.Slice(result.Files, func(i, j int) bool { return result.Files[i].Path < result.Files[j].Path })
	return result
}

func underDirectory(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ErrFileNotFound describes a path that is not indexed. Nothing in this
// package returns it: GetFileOutline reports an unknown file through its
// bool result.
var ErrFileNotFound = fmt.Errorf("query: file not indexed")

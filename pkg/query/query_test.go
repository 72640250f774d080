package query

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecortex/codecortex/pkg/bm25"
	"github.com/codecortex/codecortex/pkg/extractor"
	"github.com/codecortex/codecortex/pkg/model"
	"github.com/codecortex/codecortex/pkg/parser"
	"github.com/codecortex/codecortex/pkg/pipeline"
	"github.com/codecortex/codecortex/pkg/store"
	"github.com/codecortex/codecortex/pkg/util"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	bmIdx := bm25.New()
	st := store.New(bmIdx)
	ex := extractor.New(parser.NewManager(2), nil)
	p := pipeline.New(st, ex, 2, nil, nil)
	return New(st, bmIdx, p, nil)
}

func TestIndexCodeAndFindSymbolsRanking(t *testing.T) {
	dir := t.TempDir()
	writeGoFile(t, dir, "hello.go", "package hello\n\nfunc greet() {}\n\nfunc greeting() {}\n")

	s := newTestService(t)
	_, err := s.IndexCode(context.Background(), dir)
	require.NoError(t, err)

	got := s.FindSymbols("greet", "")
	require.Len(t, got, 2)
	assert.Equal(t, "greet", got[0].Name, "exact match ranks first")
	assert.Equal(t, "greeting", got[1].Name)
}

func TestFindSymbolsPrefixFiltersByKind(t *testing.T) {
	dir := t.TempDir()
	writeGoFile(t, dir, "hello.go", "package hello\n\ntype Greeter struct{}\n\nfunc greetAll() {}\n")

	s := newTestService(t)
	_, err := s.IndexCode(context.Background(), dir)
	require.NoError(t, err)

	got := s.FindSymbols("greet", model.KindFunction)
	require.Len(t, got, 1)
	assert.Equal(t, "greetAll", got[0].Name)
}

func TestGetSymbolIncludesSource(t *testing.T) {
	dir := t.TempDir()
	writeGoFile(t, dir, "hello.go", "package hello\n\nfunc greet() {\n\treturn\n}\n")

	s := newTestService(t)
	_, err := s.IndexCode(context.Background(), dir)
	require.NoError(t, err)

	results := s.GetSymbol("greet", true)
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].Source)
}

func TestGetSymbolIncludesSourceViaFileCache(t *testing.T) {
	dir := t.TempDir()
	writeGoFile(t, dir, "hello.go", "package hello\n\nfunc greet() {\n\treturn\n}\n")

	bmIdx := bm25.New()
	st := store.New(bmIdx)
	ex := extractor.New(parser.NewManager(2), nil)
	p := pipeline.New(st, ex, 2, nil, nil)
	fc := util.NewFileCache(util.UnboundedFileCacheConfig())
	defer fc.Close()
	s := New(st, bmIdx, p, fc)

	_, err := s.IndexCode(context.Background(), dir)
	require.NoError(t, err)

	results := s.GetSymbol("greet", true)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Source, "greet")
}

func TestGetSymbolReferencesCountsMatch(t *testing.T) {
	dir := t.TempDir()
	writeGoFile(t, dir, "hello.go", "package hello\n\nfunc greet() {}\n\nfunc call() {\n\tgreet()\n}\n")

	s := newTestService(t)
	_, err := s.IndexCode(context.Background(), dir)
	require.NoError(t, err)

	refs := s.GetSymbolReferences("greet")
	assert.Equal(t, len(refs.References), refs.Total)
}

func TestCodeSearchReturnsSnippetWithContext(t *testing.T) {
	dir := t.TempDir()
	writeGoFile(t, dir, "hello.go", "package hello\n\n// line before\nfunc greet() {}\n// line after\n")

	s := newTestService(t)
	_, err := s.IndexCode(context.Background(), dir)
	require.NoError(t, err)

	hits := s.CodeSearch("greet", 10, 1)
	require.Len(t, hits, 1)
	assert.Greater(t, hits[0].Score, 0.0)
	assert.Contains(t, hits[0].Snippet, "greet")
}

func TestGetFileOutlineGroupsByKind(t *testing.T) {
	dir := t.TempDir()
	writeGoFile(t, dir, "hello.go", "package hello\n\nfunc greet() {}\n\ntype Config struct{}\n")

	s := newTestService(t)
	_, err := s.IndexCode(context.Background(), dir)
	require.NoError(t, err)

	path := dir + "/hello.go"
	outline, ok := s.GetFileOutline(path)
	require.True(t, ok)
	assert.NotEmpty(t, outline.Kind(model.KindFunction))
	assert.NotEmpty(t, outline.Kind(model.KindStruct))
}

func TestGetDirectoryOutlineDefaultsToTypeKinds(t *testing.T) {
	dir := t.TempDir()
	writeGoFile(t, dir, "hello.go", "package hello\n\nfunc greet() {}\n\ntype Config struct{}\n")

	s := newTestService(t)
	_, err := s.IndexCode(context.Background(), dir)
	require.NoError(t, err)

	outline := s.GetDirectoryOutline(dir, nil)
	require.Len(t, outline.Files, 1)
	assert.Equal(t, 1, outline.Total, "only the struct counts, function excluded by default kinds")
}

func writeGoFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(dir+"/"+name, []byte(content), 0644))
}

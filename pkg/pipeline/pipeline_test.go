package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecortex/codecortex/pkg/bm25"
	"github.com/codecortex/codecortex/pkg/extractor"
	"github.com/codecortex/codecortex/pkg/parser"
	"github.com/codecortex/codecortex/pkg/store"
)

func newTestPipeline(t *testing.T) (*Pipeline, *store.Store) {
	t.Helper()
	st := store.New(bm25.New())
	ex := extractor.New(parser.NewManager(2), nil)
	return New(st, ex, 2, nil, nil), st
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunIndexesDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hello.go", "package hello\n\nfunc Greet() string {\n\treturn \"hi\"\n}\n")
	writeFile(t, dir, "README.md", "not code")

	p, st := newTestPipeline(t)
	summary, err := p.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FilesIndexed)
	assert.GreaterOrEqual(t, summary.SymbolsFound, 1)
	assert.Empty(t, summary.Errors)
	assert.Equal(t, 1, st.TotalFiles())
}

func TestRunIsIdempotentOnUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hello.go", "package hello\nfunc Greet() {}\n")

	p, st := newTestPipeline(t)
	_, err := p.Run(context.Background(), dir)
	require.NoError(t, err)
	firstSymbolCount := st.TotalSymbols()

	summary, err := p.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FilesIndexed)
	assert.Equal(t, firstSymbolCount, st.TotalSymbols())
}

func TestRunRefreshesContentAfterWarmStart(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hello.go", "package hello\nfunc Greet() {}\n")

	p, st := newTestPipeline(t)
	_, err := p.Run(context.Background(), dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "hello.go")
	fi, ok := st.FileInfo(path)
	require.True(t, ok)
	st.RefreshContent(path, nil) // simulate a cache.RestoreInto, which never sets Content
	fi, ok = st.FileInfo(path)
	require.True(t, ok)
	assert.Nil(t, fi.Content)

	// A second run over the unchanged file takes the hash-match skip
	// path (no re-extraction) but must still repopulate Content.
	_, err = p.Run(context.Background(), dir)
	require.NoError(t, err)

	fi, ok = st.FileInfo(path)
	require.True(t, ok)
	assert.NotEmpty(t, fi.Content, "hash-match skip must still refresh retained content")
}

func TestRunFollowsSymlinkedDirectoryOnce(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	require.NoError(t, os.Mkdir(real, 0755))
	writeFile(t, real, "linked.go", "package real\nfunc Linked() {}\n")

	require.NoError(t, os.Symlink(real, filepath.Join(dir, "alias")))

	p, st := newTestPipeline(t)
	summary, err := p.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.FilesIndexed, "real/linked.go plus the same file reached via alias/linked.go")
	assert.Equal(t, 2, st.TotalFiles())
}

func TestRunSkipsSymlinkCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "root.go", "package root\nfunc Root() {}\n")
	require.NoError(t, os.Symlink(dir, filepath.Join(dir, "loop")))

	p, _ := newTestPipeline(t)
	summary, err := p.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FilesIndexed, "the cyclic symlink must not be followed back into root")
}

func TestRunOnMissingRootIsFatal(t *testing.T) {
	p, _ := newTestPipeline(t)
	_, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestRunRecordsPerFileErrorsWithoutAborting(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks are meaningless as root")
	}
	dir := t.TempDir()
	writeFile(t, dir, "good.go", "package good\nfunc Ok() {}\n")
	unreadable := writeFile(t, dir, "secret.go", "package secret\nfunc Hidden() {}\n")
	require.NoError(t, os.Chmod(unreadable, 0000))
	defer os.Chmod(unreadable, 0644)

	p, _ := newTestPipeline(t)
	summary, err := p.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FilesIndexed)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, unreadable, summary.Errors[0].Path)
}

package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecortex/codecortex/pkg/bm25"
	"github.com/codecortex/codecortex/pkg/model"
	"github.com/codecortex/codecortex/pkg/store"
)

func TestPathForIsDeterministicAndRootSpecific(t *testing.T) {
	a, err := PathFor("/repo/one", "/tmp/cachedir")
	require.NoError(t, err)
	b, err := PathFor("/repo/one", "/tmp/cachedir")
	require.NoError(t, err)
	c, err := PathFor("/repo/two", "/tmp/cachedir")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "/tmp/cachedir", filepath.Dir(a))
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repo.cache")

	payload := Payload{
		RepoRoot:  "/repo/one",
		IndexedAt: 1234,
		Files: []FileEntry{
			{
				Path:          "a.go",
				Language:      "go",
				ContentHash:   [32]byte{1, 2, 3},
				ByteSize:      42,
				LastIndexedAt: time.Unix(0, 0).UTC(),
				Symbols: []model.Symbol{
					{ID: 7, Name: "Greet", Kind: model.KindFunction, Language: "go"},
				},
			},
		},
		BM25: bm25.State{AvgDocLen: 3, TotalDocs: 1, DocLens: map[string]int{"a.go": 3}},
	}

	require.NoError(t, Write(path, payload))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, payload.RepoRoot, got.RepoRoot)
	require.Len(t, got.Files, 1)
	assert.Equal(t, "a.go", got.Files[0].Path)
	require.Len(t, got.Files[0].Symbols, 1)
	assert.Equal(t, "Greet", got.Files[0].Symbols[0].Name)
	assert.Equal(t, 1, got.BM25.TotalDocs)
}

func TestReadRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.cache")
	require.NoError(t, os.WriteFile(path, []byte("NOPE0000"), 0644))

	_, err := Read(path)
	assert.Error(t, err)
}

func TestReadRejectsUnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "version.cache")
	require.NoError(t, Write(path, Payload{RepoRoot: "x"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(magic)] = 0xFF // corrupt the version's high byte
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = Read(path)
	assert.Error(t, err)
}

func TestReadRejectsTruncatedPayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "truncated.cache")
	require.NoError(t, Write(path, Payload{RepoRoot: "x", Files: []FileEntry{{Path: "a.go"}}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-4], 0644))

	_, err = Read(path)
	assert.Error(t, err)
}

func TestReadOnMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "does-not-exist.cache"))
	assert.Error(t, err)
}

func TestBuildPayloadAndRestoreIntoRoundTrip(t *testing.T) {
	bmIdx := bm25.New()
	st := store.New(bmIdx)

	fi := &model.FileInfo{Path: "a.go", Language: "go", Content: []byte("package a\nfunc Greet() {}\n")}
	symbols := []model.Symbol{
		{ID: 1, Name: "Greet", Kind: model.KindFunction, Language: "go", Location: model.Location{Path: "a.go", StartByte: 10, EndByte: 20}},
	}
	references := []model.Reference{
		{SymbolName: "fmt.Println", Kind: model.RefUsage, Location: model.Location{Path: "a.go", StartByte: 30, EndByte: 40}},
	}
	st.InsertFile(fi, symbols, references)

	payload := BuildPayload("/repo/one", st, bmIdx)
	require.Len(t, payload.Files, 1)
	assert.Equal(t, "a.go", payload.Files[0].Path)
	require.Len(t, payload.Files[0].Symbols, 1)
	assert.Equal(t, "Greet", payload.Files[0].Symbols[0].Name)
	require.Len(t, payload.Files[0].References, 1)
	assert.Equal(t, "fmt.Println", payload.Files[0].References[0].SymbolName)

	restored := store.New(bm25.Restore(payload.BM25))
	RestoreInto(&payload, restored)

	assert.Equal(t, 1, restored.TotalFiles())
	got := restored.GetSymbolsByName("Greet")
	require.Len(t, got, 1)
	assert.Equal(t, "a.go", got[0].Location.Path)
	assert.Empty(t, restored.CheckInvariants())
}

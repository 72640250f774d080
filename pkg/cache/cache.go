// Package cache is the binary cache (C7): one file per repository root,
// holding a serialized snapshot of the symbol store and the BM25 index,
// so that a warm start can skip re-extraction of every unchanged file.
// Writes are best-effort and non-transactional (temp file, then rename);
// a crash mid-write leaves the previous cache intact or no cache at all,
// both acceptable per spec §4.7.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/codecortex/codecortex/pkg/bm25"
	"github.com/codecortex/codecortex/pkg/model"
	"github.com/codecortex/codecortex/pkg/store"
)

const (
	magic        = "CCMC"
	currentVer   = uint16(1)
	writeTimeout = 5 * time.Second
)

// FileEntry is one file's persisted record (spec §4.7's Payload.files
// tuple). Content is intentionally excluded: the indexing pipeline
// always re-reads a file's bytes to compare content hashes, so the
// cache need only carry what extraction produced.
type FileEntry struct {
	Path          string
	Language      string
	ContentHash   [32]byte
	ByteSize      int64
	LastIndexedAt time.Time
	Symbols       []model.Symbol
	References    []model.Reference
}

// Payload is the structure persisted between the length prefix and EOF.
type Payload struct {
	RepoRoot  string
	IndexedAt int64 // unix millis
	Files     []FileEntry
	BM25      bm25.State
}

// PathFor returns the deterministic cache file path for repoRoot.
// cacheDirOverride, when non-empty, takes precedence over the OS user
// cache directory (spec §6's CODECORTX_CACHE_DIR).
func PathFor(repoRoot, cacheDirOverride string) (string, error) {
	dir := cacheDirOverride
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("cache: resolve user cache dir: %w", err)
		}
		dir = filepath.Join(base, "codecortex")
	}
	sum := sha256.Sum256([]byte(repoRoot))
	return filepath.Join(dir, hex.EncodeToString(sum[:])+".cache"), nil
}

// Write serializes payload to path via a sibling temp file and rename.
// If encoding and writing take longer than a 5-second soft timeout, Write
// returns an error rather than blocking the caller indefinitely; the write
// goes on in the background and renames its temp file into place if it
// finishes. Nothing removes a leftover temp file at a later startup.
func Write(path string, payload Payload) error {
	done := make(chan error, 1)
	go func() { done <- writeNow(path, payload) }()

	select {
	case err := <-done:
		return err
	case <-time.After(writeTimeout):
		return fmt.Errorf("cache: write to %q exceeded %s soft timeout", path, writeTimeout)
	}
}

func writeNow(path string, payload Payload) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cache: create cache dir: %w", err)
	}

	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(payload); err != nil {
		return fmt.Errorf("cache: encode payload: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "cache-*.tmp")
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	writeErr := func() error {
		if _, err := tmp.WriteString(magic); err != nil {
			return err
		}
		if err := binary.Write(tmp, binary.BigEndian, currentVer); err != nil {
			return err
		}
		if err := binary.Write(tmp, binary.BigEndian, uint64(body.Len())); err != nil {
			return err
		}
		_, err := tmp.Write(body.Bytes())
		return err
	}()
	closeErr := tmp.Close()

	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cache: write payload: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cache: close temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("cache: rename into place: %w", err)
	}
	return nil
}

// Read loads and validates the cache file at path. Any structural
// problem (missing file, bad magic, version mismatch, truncated or
// corrupt payload) is returned as an error; callers discard the cache
// silently and proceed as if none existed (spec §7).
func Read(path string) (*Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gotMagic := make([]byte, len(magic))
	if _, err := io.ReadFull(f, gotMagic); err != nil {
		return nil, fmt.Errorf("cache: read magic: %w", err)
	}
	if string(gotMagic) != magic {
		return nil, fmt.Errorf("cache: bad magic %q", gotMagic)
	}

	var ver uint16
	if err := binary.Read(f, binary.BigEndian, &ver); err != nil {
		return nil, fmt.Errorf("cache: read version: %w", err)
	}
	if ver != currentVer {
		return nil, fmt.Errorf("cache: unsupported version %d", ver)
	}

	var length uint64
	if err := binary.Read(f, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("cache: read length prefix: %w", err)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(f, body); err != nil {
		return nil, fmt.Errorf("cache: read payload: %w", err)
	}

	var payload Payload
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("cache: decode payload: %w", err)
	}
	return &payload, nil
}

// BuildPayload snapshots st and bmIdx into a Payload ready for Write.
func BuildPayload(repoRoot string, st *store.Store, bmIdx *bm25.Index) Payload {
	files := st.IterFiles()
	entries := make([]FileEntry, 0, len(files))
	for _, fi := range files {
		entries = append(entries, FileEntry{
			Path:          fi.Path,
			Language:      fi.Language,
			ContentHash:   fi.ContentHash,
			ByteSize:      fi.ByteSize,
			LastIndexedAt: fi.LastIndexedAt,
			Symbols:       st.SymbolsForFile(fi.Path),
			References:    st.ReferencesForFile(fi.Path),
		})
	}

	return Payload{
		RepoRoot:  repoRoot,
		IndexedAt: time.Now().UnixMilli(),
		Files:     entries,
		BM25:      bmIdx.Snapshot(),
	}
}

// RestoreInto rebuilds st from a previously persisted Payload.
func RestoreInto(payload *Payload, st *store.Store) {
	for _, entry := range payload.Files {
		fi := &model.FileInfo{
			Path:          entry.Path,
			Language:      entry.Language,
			ContentHash:   entry.ContentHash,
			ByteSize:      entry.ByteSize,
			LastIndexedAt: entry.LastIndexedAt,
		}
		st.RestoreFile(fi, entry.Symbols, entry.References)
	}
}

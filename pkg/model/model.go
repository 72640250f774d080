// Package model holds the data types shared by every CodeCortex component:
// symbols, references, per-file metadata and the extraction result the
// syntactic extractor hands to the indexing pipeline.
package model

import "time"

// Kind is a language-agnostic symbol classification. Tags not native to a
// given language simply never appear for that language.
type Kind string

const (
	KindFunction    Kind = "function"
	KindMethod      Kind = "method"
	KindClass       Kind = "class"
	KindStruct      Kind = "struct"
	KindEnum        Kind = "enum"
	KindInterface   Kind = "interface"
	KindTypeAlias   Kind = "type-alias"
	KindConstant    Kind = "constant"
	KindStatic      Kind = "static"
	KindVariable    Kind = "variable"
	KindModule      Kind = "module"
	KindImport      Kind = "import"
	KindProperty    Kind = "property"
	KindField       Kind = "field"
	KindConstructor Kind = "constructor"
	KindMacro       Kind = "macro"
	KindOther       Kind = "other"
)

// Visibility is public unless a language's syntax marks it private.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// ReferenceKind classifies a usage site. No reference is bound to a
// specific definition; binding is by name at query time.
type ReferenceKind string

const (
	RefDefinition  ReferenceKind = "definition"
	RefUsage       ReferenceKind = "usage"
	RefImport      ReferenceKind = "import"
	RefDeclaration ReferenceKind = "declaration"
)

// Location is a byte-and-line span. Lines are 1-based, columns are 0-based
// and end-exclusive. Byte offsets are 0-based and end-exclusive.
type Location struct {
	Path        string `json:"path"`
	StartLine   int    `json:"start_line"`
	StartColumn int    `json:"start_column"`
	EndLine     int    `json:"end_line"`
	EndColumn   int    `json:"end_column"`
	StartByte   uint32 `json:"start_byte"`
	EndByte     uint32 `json:"end_byte"`
}

// Symbol is a named definition extracted from one file.
type Symbol struct {
	ID         uint64     `json:"id"`
	Name       string     `json:"name"`
	Kind       Kind       `json:"kind"`
	Language   string     `json:"language"`
	Location   Location   `json:"location"`
	Namespace  string     `json:"namespace,omitempty"`
	Visibility Visibility `json:"visibility"`
	Signature  string     `json:"signature,omitempty"`
	Doc        string     `json:"doc,omitempty"`
}

// Reference is a usage site of an identifier, bound by name only.
type Reference struct {
	SymbolName string        `json:"symbol_name"`
	Location   Location      `json:"location"`
	Kind       ReferenceKind `json:"kind"`
}

// FileInfo is per-file metadata retained by the store.
type FileInfo struct {
	Path           string          `json:"path"`
	Language       string          `json:"language"`
	ContentHash    [32]byte        `json:"content_hash"`
	ByteSize       int64           `json:"byte_size"`
	LastIndexedAt  time.Time       `json:"last_indexed_at"`
	SymbolIDs      map[uint64]bool `json:"-"`
	ReferenceCount int             `json:"reference_count"`
	// Content holds the raw source bytes, retained for outline formatting
	// and search snippets. Large; subject to LRU eviction.
	Content []byte `json:"-"`
}

// RetainedBytes estimates the memory this file entry holds, for store
// accounting. Best-effort, not exact.
func (f *FileInfo) RetainedBytes() int64 {
	return int64(len(f.Content)) + int64(len(f.SymbolIDs))*48
}

// ExtractionResult is what the syntactic extractor produces for one file.
type ExtractionResult struct {
	Symbols    []Symbol
	References []Reference
}

// ExtractError describes a fatal parse failure confined to one file.
type ExtractError struct {
	Path       string
	ByteOffset uint32
	Message    string
}

func (e *ExtractError) Error() string {
	return e.Path + ": " + e.Message
}

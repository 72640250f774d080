// Package extractor is the syntactic extractor (C2): for one file it
// parses the source, runs the language's symbol and reference pattern
// bundles against the resulting tree, and emits symbol and reference
// records. No attempt is made to bind a reference to a specific
// definition; binding is by name at query time.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/cespare/xxhash/v2"

	"github.com/codecortex/codecortex/pkg/langs"
	"github.com/codecortex/codecortex/pkg/model"
	"github.com/codecortex/codecortex/pkg/parser"
)

// Extractor parses one file at a time and applies a language's pattern
// bundles to produce symbol and reference records.
type Extractor struct {
	parsers *parser.Manager
	logger  *slog.Logger
}

// New returns an Extractor backed by the given parser manager.
func New(parsers *parser.Manager, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{parsers: parsers, logger: logger}
}

// ExtractFile parses source and returns the symbols and references it
// contains. A parse failure is returned as *model.ExtractError; other
// files are unaffected by one file's failure (the caller is expected to
// collect these, not abort).
func (e *Extractor) ExtractFile(ctx context.Context, path string, b *langs.Bundle, source []byte) (*model.ExtractionResult, error) {
	tree, err := e.parsers.Parse(ctx, b, source)
	if err != nil {
		return nil, &model.ExtractError{Path: path, Message: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() && root.ChildCount() == 0 {
		return nil, &model.ExtractError{Path: path, Message: "parser produced no usable tree"}
	}

	symbols, err := e.extractSymbols(path, b, root, source)
	if err != nil {
		return nil, err
	}
	refs, err := e.extractReferences(path, b, root, source)
	if err != nil {
		return nil, err
	}

	return &model.ExtractionResult{Symbols: symbols, References: refs}, nil
}

// seenSymbol de-duplicates matches that land on the same (name, kind,
// start byte): per spec §4.2, the first pattern in the bundle wins and
// later matches on the same span are discarded.
type seenSymbol struct {
	name      string
	kind      model.Kind
	startByte uint32
}

func (e *Extractor) extractSymbols(path string, b *langs.Bundle, root *sitter.Node, source []byte) ([]model.Symbol, error) {
	q, err := e.parsers.SymbolQuery(b)
	if err != nil {
		return nil, &model.ExtractError{Path: path, Message: err.Error()}
	}

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q, root)

	var symbols []model.Symbol
	seen := make(map[seenSymbol]bool)

	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}

		nameNode, defNode, kind := namedCaptures(q, m)
		if nameNode == nil || defNode == nil {
			continue
		}

		name := nameNode.Content(source)
		key := seenSymbol{name: name, kind: kind, startByte: defNode.StartByte()}
		if seen[key] {
			continue
		}
		seen[key] = true

		sym := buildSymbol(path, b.Name, kind, name, defNode, source)
		symbols = append(symbols, sym)
	}

	sort.Slice(symbols, func(i, j int) bool {
		return symbols[i].Location.StartByte < symbols[j].Location.StartByte
	})
	return symbols, nil
}

func (e *Extractor) extractReferences(path string, b *langs.Bundle, root *sitter.Node, source []byte) ([]model.Reference, error) {
	q, err := e.parsers.ReferenceQuery(b)
	if err != nil {
		return nil, &model.ExtractError{Path: path, Message: err.Error()}
	}

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q, root)

	var refs []model.Reference
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}

		var nameNode, defNode *sitter.Node
		for _, c := range m.Captures {
			capName := q.CaptureNameForId(c.Index)
			switch {
			case capName == "reference.name":
				nameNode = c.Node
			case strings.HasSuffix(capName, ".usage") || strings.HasSuffix(capName, ".import") ||
				strings.HasSuffix(capName, ".definition") || strings.HasSuffix(capName, ".declaration"):
				defNode = c.Node
			}
		}
		if nameNode == nil {
			continue
		}
		if defNode == nil {
			defNode = nameNode
		}

		refs = append(refs, model.Reference{
			SymbolName: nameNode.Content(source),
			Location:   locationOf(path, defNode),
			Kind:       referenceKind(q, m),
		})
	}
	return refs, nil
}

// namedCaptures pulls the `@kind.name` and `@kind.definition` captures out
// of a symbol-query match and derives the symbol kind from the capture's
// prefix.
func namedCaptures(q *sitter.Query, m *sitter.QueryMatch) (name, definition *sitter.Node, kind model.Kind) {
	for _, c := range m.Captures {
		capName := q.CaptureNameForId(c.Index)
		dot := strings.IndexByte(capName, '.')
		if dot < 0 {
			continue
		}
		prefix, suffix := capName[:dot], capName[dot+1:]
		switch suffix {
		case "name":
			name = c.Node
			kind = model.Kind(prefix)
		case "definition":
			definition = c.Node
			kind = model.Kind(prefix)
		}
	}
	return
}

func referenceKind(q *sitter.Query, m *sitter.QueryMatch) model.ReferenceKind {
	for _, c := range m.Captures {
		switch q.CaptureNameForId(c.Index) {
		case "reference.definition":
			return model.RefDefinition
		case "reference.import":
			return model.RefImport
		case "reference.declaration":
			return model.RefDeclaration
		}
	}
	return model.RefUsage
}

// SymbolID returns the stable identifier described in spec §3/§4.2:
// a 64-bit hash of (path, name, kind, start_byte).
func SymbolID(path, name string, kind model.Kind, startByte uint32) uint64 {
	h := xxhash.New()
	fmt.Fprintf(h, "%s|%s|%s|%d", path, name, kind, startByte)
	return h.Sum64()
}

package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codecortex/codecortex/pkg/model"
)

// containerTypes are node types that introduce a namespace segment when
// walking a definition's ancestors. Language grammars name these
// differently; this set spans the ones in the bundled pattern files.
var containerTypes = map[string]bool{
	"class_declaration":     true,
	"class_definition":      true,
	"interface_declaration": true,
	"struct_item":           true,
	"trait_item":            true,
	"impl_item":             true,
	"mod_item":              true,
	"namespace_declaration": true,
}

func buildSymbol(path, language string, kind model.Kind, name string, def *sitter.Node, source []byte) model.Symbol {
	loc := locationOf(path, def)
	return model.Symbol{
		ID:         SymbolID(path, name, kind, loc.StartByte),
		Name:       name,
		Kind:       kind,
		Language:   language,
		Location:   loc,
		Namespace:  namespaceOf(def, source),
		Visibility: visibilityOf(language, name, def, source),
		Signature:  signatureOf(def, source),
		Doc:        docOf(def, source),
	}
}

func locationOf(path string, n *sitter.Node) model.Location {
	start, end := n.StartPoint(), n.EndPoint()
	return model.Location{
		Path:        path,
		StartLine:   int(start.Row) + 1,
		StartColumn: int(start.Column),
		EndLine:     int(end.Row) + 1,
		EndColumn:   int(end.Column),
		StartByte:   n.StartByte(),
		EndByte:     n.EndByte(),
	}
}

// namespaceOf walks ancestor nodes collecting the name of each enclosing
// container, outermost first, joined with ".".
func namespaceOf(n *sitter.Node, source []byte) string {
	var segments []string
	for p := n.Parent(); p != nil; p = p.Parent() {
		if !containerTypes[p.Type()] {
			continue
		}
		if nameNode := p.ChildByFieldName("name"); nameNode != nil {
			segments = append(segments, nameNode.Content(source))
		}
	}
	if len(segments) == 0 {
		return ""
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, ".")
}

// visibilityOf applies a small per-language heuristic, since visibility is
// expressed differently (or not at all) across grammars: Go uses
// identifier case, Rust a `pub` modifier, Java/TypeScript a modifier
// keyword, Python/JavaScript a leading-underscore convention.
func visibilityOf(language, name string, def *sitter.Node, source []byte) model.Visibility {
	switch language {
	case "go":
		if len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z' {
			return model.VisibilityPublic
		}
		return model.VisibilityPrivate
	case "rust":
		if hasChildOfType(def, "visibility_modifier") {
			return model.VisibilityPublic
		}
		return model.VisibilityPrivate
	case "java", "typescript", "tsx":
		if text := childrenText(def, source); strings.Contains(text, "private") {
			return model.VisibilityPrivate
		}
		return model.VisibilityPublic
	default:
		if strings.HasPrefix(name, "_") {
			return model.VisibilityPrivate
		}
		return model.VisibilityPublic
	}
}

func hasChildOfType(n *sitter.Node, typ string) bool {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		if c := n.Child(i); c != nil && c.Type() == typ {
			return true
		}
	}
	return false
}

// childrenText returns the source text of a definition node's immediate
// modifier-bearing children, used only for cheap substring checks.
func childrenText(n *sitter.Node, source []byte) string {
	count := int(n.ChildCount())
	if count == 0 {
		return ""
	}
	first := n.Child(0)
	if first == nil {
		return ""
	}
	limit := first.EndByte()
	start := n.StartByte()
	if limit > uint32(len(source)) || start > limit {
		return ""
	}
	return string(source[start:limit])
}

// signatureOf slices the source from the definition's start up to its
// body (or itself, when there is no body field), trimmed of surrounding
// whitespace. This gives functions/methods a readable textual signature
// without the implementation.
func signatureOf(def *sitter.Node, source []byte) string {
	end := def.EndByte()
	if body := def.ChildByFieldName("body"); body != nil {
		end = body.StartByte()
	}
	start := def.StartByte()
	if end > uint32(len(source)) || start > end {
		return ""
	}
	return strings.TrimSpace(string(source[start:end]))
}

// docOf collects the contiguous run of comment nodes immediately
// preceding the definition, outermost first.
func docOf(def *sitter.Node, source []byte) string {
	parent := def.Parent()
	if parent == nil {
		return ""
	}

	var idx = -1
	count := int(parent.ChildCount())
	for i := 0; i < count; i++ {
		if parent.Child(i) == def {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return ""
	}

	var lines []string
	for i := idx - 1; i >= 0; i-- {
		c := parent.Child(i)
		if c == nil || !strings.Contains(c.Type(), "comment") {
			break
		}
		lines = append(lines, strings.TrimSpace(c.Content(source)))
	}
	if len(lines) == 0 {
		return ""
	}
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return strings.Join(lines, "\n")
}

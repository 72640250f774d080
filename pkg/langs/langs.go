// Package langs is the language registry (C1): it maps lowercase file
// extensions to a language tag and a statically compiled pattern bundle
// (grammar, symbol patterns, reference patterns). No pattern is loaded at
// runtime; unknown extensions are simply ignored by the caller.
package langs

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"strings"
	"sync"
)

// Bundle is one language's parse-grammar plus its symbol and reference
// pattern sources, as described in spec §4.1 and §6.
type Bundle struct {
	Name              string
	Grammar           *sitter.Language
	Extensions        []string
	SymbolPatterns    string
	ReferencePatterns string
}

var (
	registryOnce sync.Once
	byExtension  map[string]*Bundle
	all          []*Bundle
)

func build() {
	all = []*Bundle{
		{
			Name:              "go",
			Grammar:           golang.GetLanguage(),
			Extensions:        []string{".go"},
			SymbolPatterns:    GoSymbolPatterns,
			ReferencePatterns: GoReferencePatterns,
		},
		{
			Name:              "python",
			Grammar:           python.GetLanguage(),
			Extensions:        []string{".py", ".pyw", ".pyi"},
			SymbolPatterns:    PythonSymbolPatterns,
			ReferencePatterns: PythonReferencePatterns,
		},
		{
			Name:              "javascript",
			Grammar:           javascript.GetLanguage(),
			Extensions:        []string{".js", ".mjs", ".cjs", ".jsx"},
			SymbolPatterns:    JavaScriptSymbolPatterns,
			ReferencePatterns: JavaScriptReferencePatterns,
		},
		{
			Name:              "typescript",
			Grammar:           typescript.GetLanguage(),
			Extensions:        []string{".ts", ".mts", ".cts"},
			SymbolPatterns:    TypeScriptSymbolPatterns,
			ReferencePatterns: TypeScriptReferencePatterns,
		},
		{
			Name:              "tsx",
			Grammar:           tsx.GetLanguage(),
			Extensions:        []string{".tsx"},
			SymbolPatterns:    TypeScriptSymbolPatterns,
			ReferencePatterns: TypeScriptReferencePatterns,
		},
		{
			Name:              "java",
			Grammar:           java.GetLanguage(),
			Extensions:        []string{".java"},
			SymbolPatterns:    JavaSymbolPatterns,
			ReferencePatterns: JavaReferencePatterns,
		},
		{
			Name:              "rust",
			Grammar:           rust.GetLanguage(),
			Extensions:        []string{".rs"},
			SymbolPatterns:    RustSymbolPatterns,
			ReferencePatterns: RustReferencePatterns,
		},
	}

	byExtension = make(map[string]*Bundle)
	for _, b := range all {
		for _, ext := range b.Extensions {
			byExtension[ext] = b
		}
	}
}

// Detect returns the language bundle for a file path's extension, or false
// if the extension is not recognized.
func Detect(path string) (*Bundle, bool) {
	registryOnce.Do(build)
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return nil, false
	}
	b, ok := byExtension[strings.ToLower(path[idx:])]
	return b, ok
}

// All returns every registered language bundle.
func All() []*Bundle {
	registryOnce.Do(build)
	return all
}

// ByName returns the bundle with the given language tag.
func ByName(name string) (*Bundle, bool) {
	registryOnce.Do(build)
	for _, b := range all {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

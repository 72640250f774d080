package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecortex/codecortex/pkg/langs"
	"github.com/codecortex/codecortex/pkg/model"
	"github.com/codecortex/codecortex/pkg/parser"
)

const goFixture = `package sample

// Greet returns a greeting for name.
func Greet(name string) string {
	return "hello " + name
}

type Config struct {
	Host string
}

const maxRetries = 3
`

func newTestExtractor() *Extractor {
	return New(parser.NewManager(4), nil)
}

func TestExtractFileGo(t *testing.T) {
	e := newTestExtractor()
	b, ok := langs.ByName("go")
	require.True(t, ok)

	result, err := e.ExtractFile(context.Background(), "sample.go", b, []byte(goFixture))
	require.NoError(t, err)
	require.NotNil(t, result)

	var names []string
	for _, s := range result.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Greet")
	assert.Contains(t, names, "Config")
	assert.Contains(t, names, "maxRetries")

	for _, s := range result.Symbols {
		if s.Name == "Greet" {
			assert.Equal(t, model.KindFunction, s.Kind)
			assert.Equal(t, model.VisibilityPublic, s.Visibility)
			assert.Contains(t, s.Doc, "Greet returns a greeting")
			assert.Equal(t, 4, s.Location.StartLine)
		}
		if s.Name == "maxRetries" {
			assert.Equal(t, model.VisibilityPrivate, s.Visibility)
		}
	}
}

func TestSymbolIDStable(t *testing.T) {
	id1 := SymbolID("a.go", "Foo", model.KindFunction, 10)
	id2 := SymbolID("a.go", "Foo", model.KindFunction, 10)
	id3 := SymbolID("a.go", "Foo", model.KindFunction, 11)
	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
}

const pythonFixture = `def greet(name):
    return "hello " + name

class Config:
    pass
`

const javascriptFixture = `function greet(name) {
  return "hello " + name;
}

class Config {
  render() {
    return null;
  }
}
`

const typescriptFixture = `function greet(name: string): string {
  return "hello " + name;
}

interface Config {
  host: string;
}

type Alias = Config;
`

const javaFixture = `class Config {
  void greet(String name) {
    return;
  }
}
`

const rustFixture = `fn greet(name: &str) -> String {
    name.to_string()
}

struct Config {
    host: String,
}
`

// TestExtractFilePerLanguage exercises the extractor against the python,
// javascript, typescript, java and rust grammars and pattern bundles
// (Go is covered by TestExtractFileGo; tsx is not exercised here),
// checking at least one expected symbol name and kind per language.
func TestExtractFilePerLanguage(t *testing.T) {
	cases := []struct {
		lang     string
		path     string
		src      string
		wantName string
		wantKind model.Kind
	}{
		{"python", "sample.py", pythonFixture, "greet", model.KindFunction},
		{"python", "sample.py", pythonFixture, "Config", model.KindClass},
		{"javascript", "sample.js", javascriptFixture, "greet", model.KindFunction},
		{"javascript", "sample.js", javascriptFixture, "Config", model.KindClass},
		{"typescript", "sample.ts", typescriptFixture, "greet", model.KindFunction},
		{"typescript", "sample.ts", typescriptFixture, "Config", model.KindInterface},
		{"typescript", "sample.ts", typescriptFixture, "Alias", model.KindTypeAlias},
		{"java", "Sample.java", javaFixture, "Config", model.KindClass},
		{"java", "Sample.java", javaFixture, "greet", model.KindMethod},
		{"rust", "sample.rs", rustFixture, "greet", model.KindFunction},
		{"rust", "sample.rs", rustFixture, "Config", model.KindStruct},
	}

	e := newTestExtractor()
	for _, tc := range cases {
		t.Run(tc.lang+"/"+tc.wantName, func(t *testing.T) {
			b, ok := langs.ByName(tc.lang)
			require.True(t, ok, "language %s must be registered", tc.lang)

			result, err := e.ExtractFile(context.Background(), tc.path, b, []byte(tc.src))
			require.NoError(t, err)

			var found *model.Symbol
			for i := range result.Symbols {
				if result.Symbols[i].Name == tc.wantName {
					found = &result.Symbols[i]
					break
				}
			}
			require.NotNil(t, found, "expected symbol %q in %s fixture", tc.wantName, tc.lang)
			assert.Equal(t, tc.wantKind, found.Kind)
			assert.Equal(t, tc.lang, found.Language)
		})
	}
}

func TestExtractFileDiscardsDuplicateSpans(t *testing.T) {
	e := newTestExtractor()
	b, ok := langs.ByName("go")
	require.True(t, ok)

	result, err := e.ExtractFile(context.Background(), "sample.go", b, []byte(goFixture))
	require.NoError(t, err)

	seen := map[uint64]bool{}
	for _, s := range result.Symbols {
		assert.False(t, seen[s.ID], "duplicate symbol id %d for %s", s.ID, s.Name)
		seen[s.ID] = true
	}
}

package langs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectKnownExtensions(t *testing.T) {
	cases := map[string]string{
		"main.go":        "go",
		"app.py":         "python",
		"index.js":       "javascript",
		"component.tsx":  "tsx",
		"service.ts":     "typescript",
		"Main.java":      "java",
		"lib.rs":         "rust",
		"/abs/path/a.go": "go",
	}
	for path, want := range cases {
		b, ok := Detect(path)
		require.True(t, ok, "expected %s to resolve", path)
		assert.Equal(t, want, b.Name)
	}
}

func TestDetectUnknownExtension(t *testing.T) {
	_, ok := Detect("README.md")
	assert.False(t, ok)

	_, ok = Detect("Makefile")
	assert.False(t, ok)
}

func TestDetectIsCaseInsensitive(t *testing.T) {
	b, ok := Detect("Main.GO")
	require.True(t, ok)
	assert.Equal(t, "go", b.Name)
}

func TestByName(t *testing.T) {
	b, ok := ByName("rust")
	require.True(t, ok)
	assert.NotNil(t, b.Grammar)

	_, ok = ByName("cobol")
	assert.False(t, ok)
}

func TestAllBundlesHavePatterns(t *testing.T) {
	for _, b := range All() {
		assert.NotEmpty(t, b.SymbolPatterns, b.Name)
		assert.NotEmpty(t, b.ReferencePatterns, b.Name)
		assert.NotEmpty(t, b.Extensions, b.Name)
		assert.NotNil(t, b.Grammar, b.Name)
	}
}

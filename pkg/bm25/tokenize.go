package bm25

import (
	"regexp"
	"strings"
)

var nonWord = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// Tokenize splits text on non-word characters, then further splits each
// word on camelCase and snake_case boundaries, and, when the word splits
// into more than one part, adds a lowercased concatenation of the whole
// word. Every token is lowercased. This trades index size for recall:
// "parseHTTPRequest" contributes "parse", "http", "request" and
// "parsehttprequest" (spec §4.3, §9).
func Tokenize(text string) []string {
	var tokens []string
	for _, word := range nonWord.Split(text, -1) {
		if word == "" {
			continue
		}
		parts := strings.Split(word, "_")
		var sub []string
		for _, p := range parts {
			if p == "" {
				continue
			}
			sub = append(sub, splitCamel(p)...)
		}
		for _, s := range sub {
			tokens = append(tokens, strings.ToLower(s))
		}
		if len(sub) > 1 {
			tokens = append(tokens, strings.ToLower(strings.Join(parts, "")))
		}
	}
	return tokens
}

// splitCamel breaks a single underscore-free word at camelCase
// boundaries: a lowercase-to-uppercase transition, or an acronym run
// followed by a new capitalized word (HTTPRequest -> HTTP, Request).
func splitCamel(word string) []string {
	runes := []rune(word)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var result []string
	start := 0
	for i := 1; i < n; i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := false
		if isLower(prev) && isUpper(cur) {
			boundary = true
		} else if isUpper(prev) && isUpper(cur) && i+1 < n && isLower(runes[i+1]) {
			boundary = true
		}
		if boundary {
			result = append(result, string(runes[start:i]))
			start = i
		}
	}
	result = append(result, string(runes[start:]))
	return result
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }

package utils

import (
	"strings"
	"unicode"
)

// Tokens splits s into maximal runs of letters and digits, lowercased.
func Tokens(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}

// NormalizeWhitespace collapses all whitespace runs into single spaces and trims the ends.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// FirstWords returns the first n whitespace-separated words of s, single-spaced
func FirstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// TruncateWords keeps at most n words, preferring to end on a sentence boundary
// when one exists in the second half of the kept text.
func TruncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return NormalizeWhitespace(s)
	}
	kept := words[:n]
	for i := len(kept) - 1; i >= n/2; i-- {
		if strings.HasSuffix(kept[i], ".") || strings.HasSuffix(kept[i], "!") || strings.HasSuffix(kept[i], "?") {
			return strings.Join(kept[:i+1], " ")
		}
	}
	return strings.Join(kept, " ") + "."
}

// CountPhrase counts non-overlapping occurrences of phrase inside tokens.
func CountPhrase(tokens, phrase []string) int {
	if len(phrase) == 0 || len(tokens) < len(phrase) {
		return 0
	}
	count := 0
	for i := 0; i+len(phrase) <= len(tokens); {
		match := true
		for j := range phrase {
			if tokens[i+j] != phrase[j] {
				match = false
				break
			}
		}
		if match {
			count++
			i += len(phrase)
			continue
		}
		i++
	}
	return count
}

// KeywordDensity returns the fraction of tokens in text covered by
// non-overlapping occurrences of keyword. The result lies in [0, 1].
func KeywordDensity(text, keyword string) float64 {
	tokens := Tokens(text)
	phrase := Tokens(keyword)
	if len(tokens) == 0 || len(phrase) == 0 {
		return 0
	}
	return float64(CountPhrase(tokens, phrase)*len(phrase)) / float64(len(tokens))
}

// ContainsPhrase reports whether the token sequence of keyword occurs in text.
func ContainsPhrase(text, keyword string) bool {
	return CountPhrase(Tokens(text), Tokens(keyword)) > 0
}

// UniqueStrings trims, drops empties and de-duplicates case-insensitively, keeping first-seen order.
func UniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

package rag

import (
	"strings"
	"unicode/utf8"
)

// minTermLength is the shortest query word, in runes, that takes part in matching.
const minTermLength = 3

// QueryTerms lowercases the query and returns its whitespace-separated words
// that are at least minTermLength runes long, in query order.
func QueryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minTermLength {
			terms = append(terms, f)
		}
	}
	return terms
}

// matchedTerms counts the distinct terms that occur as substrings of text.
// Terms must already be lowercase.
func matchedTerms(text string, terms []string) int {
	lower := strings.ToLower(text)
	seen := make(map[string]struct{}, len(terms))
	var n int
	for _, term := range terms {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		if strings.Contains(lower, term) {
			n++
		}
	}
	return n
}

// Package chunking splits extracted document text into size-bounded segments
// for embedding.
package chunking

import (
	"strings"
	"unicode/utf8"
)

// DefaultBudget is the default segment budget in characters.
const DefaultBudget = 1000

// Split walks the whitespace-separated tokens of text and accumulates them
// into segments. Each token costs its character length plus one for the
// joining space; when the next token would push the running cost past
// budget, a new segment is started. Empty segments are never emitted, and a
// token longer than budget becomes a segment of its own.
//
// A non-positive budget falls back to DefaultBudget.
func Split(text string, budget int) []string {
	if budget <= 0 {
		budget = DefaultBudget
	}

	var (
		chunks  []string
		current []string
		size    int
	)
	for _, word := range strings.Fields(text) {
		cost := utf8.RuneCountInString(word) + 1
		if size+cost > budget {
			if len(current) > 0 {
				chunks = append(chunks, strings.Join(current, " "))
			}
			current = []string{word}
			size = cost
			continue
		}
		current = append(current, word)
		size += cost
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// Package textproc normalizes raw text before embedding so byte-identical
// inputs always produce identical cache keys.
package textproc

import (
	"strings"
	"unicode"
)

// Cleaner normalizes text deterministically. No failure modes.
type Cleaner interface {
	Clean(text string) string
}

type defaultCleaner struct{}

// NewCleaner returns the default text normalizer: lowercase, control
// characters stripped, whitespace runs collapsed to single spaces, trimmed.
func NewCleaner() Cleaner {
	return defaultCleaner{}
}

func (defaultCleaner) Clean(text string) string {
	var builder strings.Builder
	builder.Grow(len(text))

	lastSpace := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsSpace(r) {
			if !lastSpace && builder.Len() > 0 {
				builder.WriteRune(' ')
			}
			lastSpace = true
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		builder.WriteRune(r)
		lastSpace = false
	}

	return strings.TrimRight(builder.String(), " ")
}

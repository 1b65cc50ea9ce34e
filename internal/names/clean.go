// Package names normalizes concept surface strings into identifier-safe node
// labels for the emitted DAG grammar.
package names

import (
	"strings"
	"unicode"
)

// UnknownNode is returned for inputs that clean down to nothing.
const UnknownNode = "unknown_node"

// Clean rewrites a surface name into an identifier-safe label: every run of
// whitespace, punctuation, or symbol characters (underscore excepted) becomes a
// single underscore, leading/trailing underscores are trimmed, and case is
// preserved. Clean is idempotent.
func Clean(name string) string {
	if name == "" {
		return UnknownNode
	}

	var b strings.Builder
	b.Grow(len(name))
	pending := false
	for _, r := range name {
		if r != '_' && (unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)) {
			pending = true
			continue
		}
		if r == '_' {
			pending = true
			continue
		}
		if pending && b.Len() > 0 {
			b.WriteByte('_')
		}
		pending = false
		b.WriteRune(r)
	}

	cleaned := b.String()
	if cleaned == "" {
		return UnknownNode
	}
	return cleaned
}

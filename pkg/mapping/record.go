// Package mapping provides the public data model for rule-driven field
// transformation: input/output records, the transform AST, conditional
// rules, mapping entries, and the spec document exchanged with downstream
// consumers. Types in this package carry no parsing or evaluation behavior;
// they are constructed once during spec building and treated as immutable.
package mapping

import (
	"regexp"
	"strings"
)

// Record is a flat, string-keyed data row. Both input records handed to the
// applier and output records it produces use this type.
type Record map[string]string

// Get returns the value for field, or the empty string when the field is
// absent. Lookups never fail; a missing field reads the same as an empty
// value.
func (r Record) Get(field string) string {
	if r == nil {
		return ""
	}
	return r[field]
}

// Set stores value under field, allocating nothing beyond the map entry.
func (r Record) Set(field, value string) {
	r[field] = value
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeField canonicalizes a field name: strips a UTF-8 BOM, collapses
// runs of whitespace to a single space, and trims. Field names stay
// case-sensitive after normalization.
func NormalizeField(s string) string {
	s = strings.ReplaceAll(s, "\uFEFF", "")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// StripQuotes removes one matching pair of surrounding single or double
// quotes, if present. Inner quotes are left alone.
func StripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

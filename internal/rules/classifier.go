package rules

import (
	"regexp"
	"strings"

	"github.com/achui1980/agent-krystal/pkg/mapping"
)

// RuleRow is one raw line from the rules table after column resolution.
// Every cell is a trimmed string; an empty string means the cell was absent.
type RuleRow struct {
	Target    string
	Source    string
	Rule      string
	Default   string
	Condition string
	Comment   string
}

var (
	// Conditional keywords anywhere in the rule text mark the row as a
	// conditional mapping, regardless of whether it later parses.
	condKeywordRE = regexp.MustCompile(`\b(IF|ELSE|WHEN|CASE|THEN)\b`)

	// Known transform function names, matched on the upper-cased text.
	transformFnRE = regexp.MustCompile(`\b(TRIM|UPPER|LOWER|SUBSTR|LEFT|RIGHT|CONCAT|SPLIT|REPLACE|DATE_FORMAT|CAST|TO_DATE|ROUND)\b`)

	defaultKeywordRE = regexp.MustCompile(`\b(DEFAULT|FIXED|NULL)\b|TODAY\(\)`)
)

// Classify decides the mapping type of a raw rule row. It is total and
// deterministic: every row gets a type, ambiguity is resolved by a fixed
// priority order.
//
//  1. Default cell set and no source: Default.
//  2. Rule text contains a conditional keyword: Conditional.
//  3. Rule text names a transform function or carries a balanced
//     parenthesized call: Transform.
//  4. Rule text empty, DIRECT, or COPY: Direct.
//  5. Rule text contains "=" and a source is set: Direct.
//  6. Rule text contains a default keyword and no source: Default.
//  7. Otherwise Direct when a source is set, else Default.
func Classify(row RuleRow) mapping.MappingType {
	txt := strings.TrimSpace(row.Rule)
	upper := strings.ToUpper(txt)
	hasSource := strings.TrimSpace(row.Source) != ""

	if row.Default != "" && !hasSource {
		return mapping.TypeDefault
	}

	if condKeywordRE.MatchString(upper) {
		return mapping.TypeConditional
	}

	if transformFnRE.MatchString(upper) || hasBalancedCall(txt) {
		return mapping.TypeTransform
	}

	if txt == "" || upper == "DIRECT" || upper == "COPY" {
		return mapping.TypeDirect
	}

	if strings.Contains(txt, "=") && hasSource {
		return mapping.TypeDirect
	}

	if defaultKeywordRE.MatchString(upper) && !hasSource {
		return mapping.TypeDefault
	}

	if hasSource {
		return mapping.TypeDirect
	}
	return mapping.TypeDefault
}

// hasBalancedCall reports whether s contains at least one parenthesized
// group with every open paren closed in order.
func hasBalancedCall(s string) bool {
	depth := 0
	seen := false
	for _, r := range s {
		switch r {
		case '(':
			depth++
			seen = true
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return seen && depth == 0
}

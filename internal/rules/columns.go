package rules

import (
	"strings"

	"github.com/achui1980/agent-krystal/pkg/mapping"
)

// ColumnMap holds the resolved rule-table column name for each row field.
// An empty string means no header matched; only Target is mandatory.
type ColumnMap struct {
	Target    string
	Source    string
	Rule      string
	Default   string
	Condition string
	Comment   string
}

// Column header synonyms, tried in order. An exact (case-insensitive) match
// anywhere in the header list wins over a substring match.
var (
	targetSynonyms    = []string{"target field", "expected field", "target", "to"}
	sourceSynonyms    = []string{"source field", "source", "from"}
	ruleSynonyms      = []string{"rule", "logic", "transformation", "mapping"}
	defaultSynonyms   = []string{"default", "default value", "fallback"}
	conditionSynonyms = []string{"condition", "when", "if"}
	commentSynonyms   = []string{"comment", "remark", "notes"}
)

// ResolveColumns fuzzy-matches the rule table headers against the known
// synonym sets. Headers are normalized first; blank headers are ignored.
// A table without a resolvable target column returns a RuleSchemaError.
func ResolveColumns(headers []string) (ColumnMap, error) {
	var cols []string
	for _, h := range headers {
		if n := mapping.NormalizeField(h); n != "" {
			cols = append(cols, n)
		}
	}

	pick := func(candidates []string) string {
		for _, cand := range candidates {
			lc := strings.ToLower(cand)
			for _, c := range cols {
				if strings.ToLower(c) == lc {
					return c
				}
			}
			for _, c := range cols {
				if strings.Contains(strings.ToLower(c), lc) {
					return c
				}
			}
		}
		return ""
	}

	cm := ColumnMap{
		Target:    pick(targetSynonyms),
		Source:    pick(sourceSynonyms),
		Rule:      pick(ruleSynonyms),
		Default:   pick(defaultSynonyms),
		Condition: pick(conditionSynonyms),
		Comment:   pick(commentSynonyms),
	}

	if cm.Target == "" {
		return cm, &RuleSchemaError{Available: cols}
	}
	return cm, nil
}

// RowFromRecord extracts a RuleRow from one raw table row using the
// resolved column map. Cell values are trimmed; the literal "nan" emitted
// by spreadsheet loaders for empty cells reads as empty.
func RowFromRecord(cm ColumnMap, rec map[string]string) RuleRow {
	cell := func(col string) string {
		if col == "" {
			return ""
		}
		v := strings.TrimSpace(rec[col])
		if strings.ToLower(v) == "nan" {
			return ""
		}
		return v
	}

	return RuleRow{
		Target:    cell(cm.Target),
		Source:    cell(cm.Source),
		Rule:      cell(cm.Rule),
		Default:   cell(cm.Default),
		Condition: cell(cm.Condition),
		Comment:   cell(cm.Comment),
	}
}

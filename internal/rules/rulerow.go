package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/achui1980/agent-krystal/pkg/mapping"
)

// ErrEmptyTarget marks a rule row without a target field; such rows are
// skipped by the spec builder.
var ErrEmptyTarget = errors.New("rule row has empty target")

// ParseRuleRow turns one raw rule row into a MappingEntry. Classification
// never fails; when the condition or transform text does not parse, the
// entry is downgraded instead of dropped: Direct if a source is set,
// otherwise Default with an empty default. The returned UnparsedRule
// records the failure for diagnostics.
func ParseRuleRow(row RuleRow) (mapping.MappingEntry, *mapping.UnparsedRule, error) {
	target := strings.TrimSpace(row.Target)
	if target == "" {
		return mapping.MappingEntry{}, nil, ErrEmptyTarget
	}

	source := strings.TrimSpace(row.Source)
	var defaultVal *string
	if row.Default != "" {
		d := row.Default
		defaultVal = &d
	}

	mtype := Classify(row)
	var conditions mapping.ConditionalRule
	var transform *mapping.Node
	var unparsed *mapping.UnparsedRule

	var parseErr error
	switch mtype {
	case mapping.TypeConditional:
		conditions, parseErr = ParseConditions(row.Rule, row.Condition)
	case mapping.TypeTransform:
		var node mapping.Node
		node, parseErr = ParseTransform(row.Rule)
		if parseErr == nil {
			transform = &node
		}
	}

	if parseErr != nil {
		unparsed = &mapping.UnparsedRule{
			Target: target,
			Source: source,
			Rule:   row.Rule,
			Error:  parseErr.Error(),
		}
		conditions = mapping.ConditionalRule{}
		transform = nil
		switch {
		case source != "":
			mtype = mapping.TypeDirect
		case defaultVal != nil:
			mtype = mapping.TypeDefault
		default:
			mtype = mapping.TypeDefault
			empty := ""
			defaultVal = &empty
		}
	}

	entry := mapping.MappingEntry{
		Source:   source,
		Target:   target,
		Type:     mtype,
		Default:  defaultVal,
		RuleText: row.Rule,
	}
	if mtype == mapping.TypeConditional {
		entry.Conditions = conditions
	}
	if mtype == mapping.TypeTransform {
		entry.Transform = transform
	}
	entry.Logic = buildLogicSummary(entry)

	return entry, unparsed, nil
}

// buildLogicSummary renders a one-line human-readable description of the
// entry for the exported spec document.
func buildLogicSummary(e mapping.MappingEntry) string {
	parts := []string{
		fmt.Sprintf("type=%s", e.Type),
		fmt.Sprintf("target=%s", e.Target),
	}
	if e.Source != "" {
		parts = append(parts, fmt.Sprintf("source=%s", e.Source))
	}
	if e.Default != nil {
		parts = append(parts, fmt.Sprintf("default=%s", *e.Default))
	}
	if e.Type == mapping.TypeConditional {
		parts = append(parts, fmt.Sprintf("conditions=%s", compactJSON(e.Conditions)))
	}
	if e.Type == mapping.TypeTransform && e.Transform != nil {
		parts = append(parts, fmt.Sprintf("transform=%s", compactJSON(*e.Transform)))
	}
	if e.RuleText != "" {
		parts = append(parts, fmt.Sprintf("raw_rule=%s", e.RuleText))
	}
	return strings.Join(parts, "; ")
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

package rules

import (
	"regexp"
	"strings"

	"github.com/achui1980/agent-krystal/pkg/mapping"
)

var (
	// IF <field> (IN|=) <list-or-value> THEN <value> [ELSE <value>]
	ifFormRE = regexp.MustCompile(`(?i)IF\s+([A-Za-z0-9_ ]+?)\s+(IN|=)\s*(\([^)]+\)|[A-Za-z0-9_'"]+)\s*THEN\s*([^;]+?)(\s+ELSE\s+(.+))?$`)

	caseKeywordRE = regexp.MustCompile(`(?i)\b(WHEN|ELSE|END)\b`)
	thenKeywordRE = regexp.MustCompile(`(?i)\bTHEN\b`)

	condInRE       = regexp.MustCompile(`(?i)^([A-Za-z_][A-Za-z0-9_]*)\s+IN\s+\((.+)\)$`)
	condContainsRE = regexp.MustCompile(`(?i)^([A-Za-z_][A-Za-z0-9_]*)\s+CONTAINS\s+(.+)$`)
	condNotEqRE    = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*!=\s*(.+)$`)
	condEqRE       = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+)$`)
)

// ParseConditions parses conditional rule text into an ordered branch list.
// The condition cell and the rule text are joined, condition cell first, so
// either column (or both) can carry the expression.
//
// Two grammars are tried in order: the single-branch IF form, then the
// multi-branch CASE WHEN form. Anything else fails with an
// AmbiguousConditionError; there is no guessing beyond the two grammars.
func ParseConditions(ruleText, conditionCell string) (mapping.ConditionalRule, error) {
	text := strings.TrimSpace(conditionCell + " " + ruleText)
	if text == "" {
		return mapping.ConditionalRule{}, &AmbiguousConditionError{
			Reason: "conditional mapping but empty condition text",
		}
	}

	if rule, ok := parseIfForm(text); ok {
		return rule, nil
	}

	upper := strings.ToUpper(text)
	if strings.Contains(upper, "CASE") && strings.Contains(upper, "WHEN") && strings.Contains(upper, "THEN") {
		return parseCaseForm(text)
	}

	return mapping.ConditionalRule{}, &AmbiguousConditionError{
		Text:   text,
		Reason: "unrecognized conditional syntax",
	}
}

// parseIfForm matches "IF FIELD IN (A,B) THEN X ELSE Y" and the
// single-value "IF FIELD = A THEN X" variant. Keywords match
// case-insensitively; branch values keep their original case.
func parseIfForm(text string) (mapping.ConditionalRule, bool) {
	m := ifFormRE.FindStringSubmatch(text)
	if m == nil {
		return mapping.ConditionalRule{}, false
	}

	field := strings.ReplaceAll(strings.TrimSpace(m[1]), " ", "_")
	rawVal := strings.TrimSpace(m[3])
	thenVal := strings.TrimSpace(m[4])
	elseVal := strings.TrimSpace(m[6])

	var op mapping.CondOp
	var values []string
	if strings.HasPrefix(rawVal, "(") && strings.HasSuffix(rawVal, ")") {
		op = mapping.CondIn
		for _, v := range strings.Split(rawVal[1:len(rawVal)-1], ",") {
			values = append(values, mapping.StripQuotes(strings.TrimSpace(v)))
		}
	} else {
		op = mapping.CondEquals
		values = []string{mapping.StripQuotes(rawVal)}
	}

	order := []mapping.Branch{
		mapping.WhenBranch(mapping.Condition{Field: field, Op: op, Values: values}, thenVal),
	}
	if elseVal != "" {
		order = append(order, mapping.ElseBranch(elseVal))
	}
	return mapping.ConditionalRule{Order: order}, true
}

// parseCaseForm scans "CASE WHEN ... THEN ... [WHEN ...]* [ELSE ...] END"
// by keyword position: each WHEN segment runs to the next WHEN/ELSE/END
// keyword and is split at its THEN.
func parseCaseForm(text string) (mapping.ConditionalRule, error) {
	var order []mapping.Branch

	locs := caseKeywordRE.FindAllStringSubmatchIndex(text, -1)
scan:
	for i, loc := range locs {
		keyword := strings.ToUpper(text[loc[2]:loc[3]])
		segEnd := len(text)
		if i+1 < len(locs) {
			segEnd = locs[i+1][0]
		}
		seg := text[loc[1]:segEnd]

		switch keyword {
		case "WHEN":
			thenLoc := thenKeywordRE.FindStringIndex(seg)
			if thenLoc == nil {
				continue
			}
			cond, err := parseSimpleConditionExpr(strings.TrimSpace(seg[:thenLoc[0]]))
			if err != nil {
				return mapping.ConditionalRule{}, err
			}
			order = append(order, mapping.WhenBranch(cond, strings.TrimSpace(seg[thenLoc[1]:])))
		case "ELSE":
			order = append(order, mapping.ElseBranch(strings.TrimSpace(seg)))
			break scan
		case "END":
			break scan
		}
	}

	if len(order) == 0 {
		return mapping.ConditionalRule{}, &AmbiguousConditionError{
			Text:   text,
			Reason: "cannot parse CASE expression",
		}
	}
	return mapping.ConditionalRule{Order: order}, nil
}

// parseSimpleConditionExpr parses one condition expression:
//
//	FIELD = 'X'
//	FIELD IN ('A','B')
//	FIELD != 'X'
//	FIELD CONTAINS 'X'
//
// Values may be quoted or bare; quotes are stripped.
func parseSimpleConditionExpr(expr string) (mapping.Condition, error) {
	e := strings.TrimSpace(expr)

	if m := condInRE.FindStringSubmatch(e); m != nil {
		var values []string
		for _, v := range splitArgs(m[2]) {
			values = append(values, mapping.StripQuotes(strings.TrimSpace(v)))
		}
		return mapping.Condition{Field: m[1], Op: mapping.CondIn, Values: values}, nil
	}

	if m := condContainsRE.FindStringSubmatch(e); m != nil {
		return mapping.Condition{
			Field:  m[1],
			Op:     mapping.CondContains,
			Values: []string{mapping.StripQuotes(strings.TrimSpace(m[2]))},
		}, nil
	}

	if m := condNotEqRE.FindStringSubmatch(e); m != nil {
		return mapping.Condition{
			Field:  m[1],
			Op:     mapping.CondNotEquals,
			Values: []string{mapping.StripQuotes(strings.TrimSpace(m[2]))},
		}, nil
	}

	if m := condEqRE.FindStringSubmatch(e); m != nil {
		return mapping.Condition{
			Field:  m[1],
			Op:     mapping.CondEquals,
			Values: []string{mapping.StripQuotes(strings.TrimSpace(m[2]))},
		}, nil
	}

	return mapping.Condition{}, &AmbiguousConditionError{Text: expr, Reason: "cannot parse condition expression"}
}

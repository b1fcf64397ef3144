package rules

import (
	"regexp"
	"strings"
	"time"

	"github.com/achui1980/agent-krystal/pkg/mapping"
)

var (
	spaceRE  = regexp.MustCompile(`\s+`)
	callRE   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\((.*)\)$`)
	callHead = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\(`)
	identRE  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	numberRE = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// ParseTransform parses function-call-style rule text into a transform
// tree. The grammar is a single call form IDENT(args...) with arguments
// split on top-level commas (commas inside quotes or nested calls do not
// split) and each argument parsed recursively as an atom. A bare identifier
// parses as identity(field).
//
// Failure is whole-expression: unbalanced call text, an unknown function
// name, or a nested parse failure all return a TransformParseError and no
// partial tree.
func ParseTransform(text string) (mapping.Node, error) {
	txt := strings.TrimSpace(text)
	if txt == "" {
		return mapping.Node{}, &TransformParseError{Reason: "empty transform text"}
	}

	norm := strings.TrimSpace(spaceRE.ReplaceAllString(txt, " "))

	m := callRE.FindStringSubmatch(norm)
	if m == nil {
		if identRE.MatchString(norm) {
			return mapping.Call(mapping.OpIdentity, mapping.FieldRef(norm)), nil
		}
		return mapping.Node{}, &TransformParseError{Text: norm, Reason: "not a function call"}
	}

	op, ok := mapping.ParseOperator(m[1])
	if !ok {
		return mapping.Node{}, &TransformParseError{Text: m[1], Reason: "unsupported transform function"}
	}

	var atoms []mapping.Node
	for _, arg := range splitArgs(m[2]) {
		if strings.TrimSpace(arg) == "" {
			continue
		}
		atom, err := parseAtom(arg)
		if err != nil {
			return mapping.Node{}, err
		}
		atoms = append(atoms, atom)
	}

	return mapping.Call(op, atoms...), nil
}

// parseAtom parses a single argument: a nested call, a field reference, a
// quoted literal, the NULL and TODAY() keywords, a numeric literal, or a
// raw literal as the catch-all.
func parseAtom(s string) (mapping.Node, error) {
	s = strings.TrimSpace(s)

	// Keyword atoms take precedence: NULL would otherwise read as a field
	// reference and TODAY() as an unknown function call.
	switch strings.ToUpper(s) {
	case "NULL":
		return mapping.Literal(""), nil
	case "TODAY()":
		// Resolved at parse time, matching the default-value semantics.
		return mapping.Literal(time.Now().Format("2006-01-02")), nil
	}

	if strings.Contains(s, "(") && strings.Contains(s, ")") && callHead.MatchString(s) {
		return ParseTransform(s)
	}
	if identRE.MatchString(s) {
		return mapping.FieldRef(s), nil
	}
	if isQuoted(s) {
		return mapping.Literal(mapping.StripQuotes(s)), nil
	}
	if numberRE.MatchString(s) {
		return mapping.Literal(s), nil
	}
	return mapping.Literal(s), nil
}

func isQuoted(s string) bool {
	return len(s) >= 2 &&
		((s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"'))
}

// splitArgs splits a function argument list on commas, respecting nested
// parentheses and single/double quoted strings. Each piece is trimmed.
func splitArgs(argsStr string) []string {
	var args []string
	var buf strings.Builder
	depth := 0
	inSquote := false
	inDquote := false

	for _, ch := range argsStr {
		switch {
		case ch == '\'' && !inDquote:
			inSquote = !inSquote
		case ch == '"' && !inSquote:
			inDquote = !inDquote
		case ch == '(' && !inSquote && !inDquote:
			depth++
		case ch == ')' && !inSquote && !inDquote:
			if depth > 0 {
				depth--
			}
		}

		if ch == ',' && depth == 0 && !inSquote && !inDquote {
			args = append(args, strings.TrimSpace(buf.String()))
			buf.Reset()
			continue
		}
		buf.WriteRune(ch)
	}

	if buf.Len() > 0 {
		args = append(args, strings.TrimSpace(buf.String()))
	}
	return args
}

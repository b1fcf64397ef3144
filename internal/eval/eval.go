// Package eval executes parsed mapping specs: it evaluates transform trees
// and conditional rules against input records and applies whole specs to
// produce output records. Every exported entry point is total: evaluation
// failures resolve to the mapping's configured default, never an error or
// panic to the caller.
package eval

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/achui1980/agent-krystal/pkg/mapping"
)

// Default resolves a configured default value: NULL reads as empty, TODAY()
// as the current date, and one pair of surrounding quotes is stripped. A nil
// default resolves to the empty string.
func Default(defaultVal *string) string {
	if defaultVal == nil {
		return ""
	}
	d := strings.TrimSpace(*defaultVal)
	switch strings.ToUpper(d) {
	case "NULL":
		return ""
	case "TODAY()":
		return time.Now().Format("2006-01-02")
	}
	return mapping.StripQuotes(d)
}

// Node evaluates a transform tree against one record. Any evaluation
// failure anywhere in the tree resolves to the configured default.
func Node(n mapping.Node, rec mapping.Record, defaultVal *string) string {
	v, err := evalNode(n, rec, defaultVal)
	if err != nil {
		return Default(defaultVal)
	}
	return v
}

// evalNode is the error-returning evaluator core. Callers outside this
// package go through Node, which converts errors to the default value.
func evalNode(n mapping.Node, rec mapping.Record, defaultVal *string) (string, error) {
	switch n.Kind {
	case mapping.KindField:
		return rec.Get(n.Field), nil
	case mapping.KindLiteral:
		return n.Const, nil
	case mapping.KindCall:
		return evalCall(n, rec, defaultVal)
	default:
		return "", fmt.Errorf("unknown node kind %d", n.Kind)
	}
}

// arg evaluates the i-th argument, or returns fallback when absent. Nested
// calls evaluate through the defaulting adapter so an inner failure yields
// that call's default and the outer expression keeps going.
func arg(n mapping.Node, rec mapping.Record, defaultVal *string, i int, fallback string) string {
	if i >= len(n.Args) {
		return fallback
	}
	a := n.Args[i]
	if a.Kind == mapping.KindCall {
		return Node(a, rec, defaultVal)
	}
	v, _ := evalNode(a, rec, defaultVal)
	return v
}

// intArg evaluates the i-th argument as an integer.
func intArg(n mapping.Node, rec mapping.Record, defaultVal *string, i int, fallback int) (int, error) {
	if i >= len(n.Args) {
		return fallback, nil
	}
	s := strings.TrimSpace(arg(n, rec, defaultVal, i, ""))
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("argument %d is not an integer: %q", i, s)
	}
	return v, nil
}

func evalCall(n mapping.Node, rec mapping.Record, defaultVal *string) (string, error) {
	str := func(i int) string { return arg(n, rec, defaultVal, i, "") }

	switch n.Op {
	case mapping.OpIdentity:
		return str(0), nil

	case mapping.OpTrim:
		return strings.TrimSpace(str(0)), nil

	case mapping.OpUpper:
		return strings.ToUpper(str(0)), nil

	case mapping.OpLower:
		return strings.ToLower(str(0)), nil

	case mapping.OpLeft:
		s := []rune(str(0))
		count, err := intArg(n, rec, defaultVal, 1, 0)
		if err != nil {
			return "", err
		}
		if count < 0 {
			count = 0
		}
		if count > len(s) {
			count = len(s)
		}
		return string(s[:count]), nil

	case mapping.OpRight:
		s := []rune(str(0))
		count, err := intArg(n, rec, defaultVal, 1, 0)
		if err != nil {
			return "", err
		}
		if count <= 0 {
			return "", nil
		}
		if count > len(s) {
			count = len(s)
		}
		return string(s[len(s)-count:]), nil

	case mapping.OpSubstr:
		s := []rune(str(0))
		start, err := intArg(n, rec, defaultVal, 1, 1)
		if err != nil {
			return "", err
		}
		idx := start - 1
		if idx < 0 {
			idx = 0
		}
		if idx >= len(s) {
			return "", nil
		}
		if len(n.Args) < 3 {
			return string(s[idx:]), nil
		}
		length, err := intArg(n, rec, defaultVal, 2, 0)
		if err != nil {
			return "", err
		}
		if length < 0 {
			length = 0
		}
		end := idx + length
		if end > len(s) {
			end = len(s)
		}
		return string(s[idx:end]), nil

	case mapping.OpConcat:
		var b strings.Builder
		for i := range n.Args {
			b.WriteString(str(i))
		}
		return b.String(), nil

	case mapping.OpSplit:
		s := str(0)
		delim := "|"
		if len(n.Args) >= 2 {
			delim = str(1)
		}
		idx, err := intArg(n, rec, defaultVal, 2, 0)
		if err != nil {
			return "", err
		}
		pieces := strings.Split(s, delim)
		if idx < 0 || idx >= len(pieces) {
			return "", nil
		}
		return pieces[idx], nil

	case mapping.OpReplace:
		return strings.ReplaceAll(str(0), str(1), str(2)), nil

	case mapping.OpToDate, mapping.OpDateFormat:
		s := str(0)
		format := "yyyy-MM-dd"
		if len(n.Args) >= 2 {
			format = str(1)
		}
		d, ok := parseDateBestEffort(s)
		if !ok {
			return "", fmt.Errorf("unparseable date: %q", s)
		}
		return formatDate(d, format), nil

	case mapping.OpCast:
		typ := "string"
		if len(n.Args) >= 2 {
			typ = strings.ToLower(str(1))
		}
		return castValue(str(0), typ), nil

	case mapping.OpRound:
		scale, err := intArg(n, rec, defaultVal, 1, 0)
		if err != nil {
			return "", err
		}
		return roundDecimal(str(0), scale), nil

	default:
		return "", fmt.Errorf("unsupported operator %q", n.Op)
	}
}

// castValue converts s to the named type. Invalid input for int, decimal,
// or date casts reads as empty, not as the mapping default.
func castValue(s, typ string) string {
	txt := strings.TrimSpace(s)
	switch typ {
	case "string", "str":
		return txt
	case "int", "integer":
		d, err := decimal.NewFromString(txt)
		if err != nil {
			return ""
		}
		return d.Truncate(0).String()
	case "decimal", "number", "float":
		d, err := decimal.NewFromString(txt)
		if err != nil {
			return ""
		}
		return d.String()
	case "date":
		d, ok := parseDateBestEffort(txt)
		if !ok {
			return ""
		}
		return d.Format("2006-01-02")
	default:
		return txt
	}
}

// roundDecimal rounds s to scale fractional digits with exact half-up
// arithmetic. Unparseable input reads as empty.
func roundDecimal(s string, scale int) string {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return d.Round(int32(scale)).StringFixed(int32(scale))
}

// Conditional evaluates an ordered branch list: branches are tested in
// source order, the first matching When wins, the trailing Else applies
// when nothing matched, and the configured default covers an empty or
// exhausted rule. Then and Else values are quote-stripped and trimmed.
func Conditional(rule mapping.ConditionalRule, rec mapping.Record, defaultVal *string) string {
	for _, b := range rule.Order {
		if b.IsElse() {
			return strings.TrimSpace(mapping.StripQuotes(*b.Else))
		}
		if b.When != nil && Match(*b.When, rec) {
			return strings.TrimSpace(mapping.StripQuotes(b.Then))
		}
	}
	return Default(defaultVal)
}

// Match tests one condition against a record. The actual value is read with
// missing-as-empty semantics and trimmed; comparisons are case-sensitive.
func Match(cond mapping.Condition, rec mapping.Record) bool {
	actual := strings.TrimSpace(rec.Get(cond.Field))

	switch cond.Op {
	case mapping.CondEquals, mapping.CondIn:
		for _, v := range cond.Values {
			if actual == strings.TrimSpace(v) {
				return true
			}
		}
		return false
	case mapping.CondNotEquals:
		if len(cond.Values) == 0 {
			return actual != ""
		}
		return actual != strings.TrimSpace(cond.Values[0])
	case mapping.CondContains:
		if len(cond.Values) == 0 {
			return false
		}
		return strings.Contains(actual, strings.TrimSpace(cond.Values[0]))
	default:
		return false
	}
}

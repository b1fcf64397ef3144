// Package rules parses declarative field-mapping tables into executable
// mapping specs: it classifies rule rows, parses transform expressions and
// conditional rules, and builds the validated spec document.
package rules

import (
	"fmt"
	"strings"
)

// Error codes for rule parsing and spec building.
const (
	ErrCodeRuleSchema         = "RULE_SCHEMA"
	ErrCodeSchemaMismatch     = "SCHEMA_MISMATCH"
	ErrCodeAmbiguousCondition = "AMBIGUOUS_CONDITION"
	ErrCodeTransformParse     = "TRANSFORM_PARSE"
)

// RuleSchemaError is returned when the rule table has no resolvable target
// column. It is fatal: without a target column no row can be parsed.
type RuleSchemaError struct {
	Available []string
}

func (e *RuleSchemaError) Error() string {
	return fmt.Sprintf("missing required target column, available columns: [%s]",
		strings.Join(e.Available, ", "))
}

// Code returns the stable error code for CLI exit mapping.
func (e *RuleSchemaError) Code() string { return ErrCodeRuleSchema }

// SchemaMismatchError is returned by the spec builder in strict mode when
// field counts, rule counts, or target coverage do not match the declared
// schema. Err aggregates every violation found in the build, not just the
// first one.
type SchemaMismatchError struct {
	Err error
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: %v", e.Err)
}

func (e *SchemaMismatchError) Unwrap() error { return e.Err }

// Code returns the stable error code for CLI exit mapping.
func (e *SchemaMismatchError) Code() string { return ErrCodeSchemaMismatch }

// AmbiguousConditionError is returned when conditional rule text matches
// neither of the supported condition grammars. It is recovered by the rule
// row parser, which downgrades the entry and records a diagnostic.
type AmbiguousConditionError struct {
	Text   string
	Reason string
}

func (e *AmbiguousConditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Text)
}

// Code returns the stable error code for CLI exit mapping.
func (e *AmbiguousConditionError) Code() string { return ErrCodeAmbiguousCondition }

// TransformParseError is returned when transform rule text does not match
// the function-call grammar. Like condition errors it is recovered by
// downgrading the entry; it is never fatal to a build.
type TransformParseError struct {
	Text   string
	Reason string
}

func (e *TransformParseError) Error() string {
	if e.Text == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Text)
}

// Code returns the stable error code for CLI exit mapping.
func (e *TransformParseError) Code() string { return ErrCodeTransformParse }

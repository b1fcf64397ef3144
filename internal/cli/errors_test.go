package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/achui1980/agent-krystal/internal/config"
	"github.com/achui1980/agent-krystal/internal/rules"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"schema mismatch", &rules.SchemaMismatchError{Err: errors.New("counts differ")}, ExitValidation},
		{"wrapped schema mismatch", fmt.Errorf("build: %w", &rules.SchemaMismatchError{Err: errors.New("x")}), ExitValidation},
		{"rule schema", &rules.RuleSchemaError{Available: []string{"a"}}, ExitParse},
		{"transform parse", &rules.TransformParseError{Text: "BAD(", Reason: "unbalanced"}, ExitParse},
		{"ambiguous condition", &rules.AmbiguousConditionError{Text: "IF", Reason: "no branches"}, ExitParse},
		{"document parse", config.ParseError{Message: "bad json"}, ExitParse},
		{"document validation", config.ValidationError{Message: "missing rules"}, ExitValidation},
		{"runtime", errors.New("read input: file missing"), ExitRuntime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

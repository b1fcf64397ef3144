package rules

import (
	"testing"

	"github.com/achui1980/agent-krystal/pkg/mapping"
)

// TestClassifyPriorityOrder tests the fixed decision order for mapping
// types, including rows that would match several heuristics.
func TestClassifyPriorityOrder(t *testing.T) {
	tests := []struct {
		name string
		row  RuleRow
		want mapping.MappingType
	}{
		{
			name: "default cell without source wins first",
			row:  RuleRow{Target: "STATUS", Default: "UNKNOWN"},
			want: mapping.TypeDefault,
		},
		{
			name: "default cell with source does not force default",
			row:  RuleRow{Target: "STATUS", Source: "SRC_STATUS", Default: "UNKNOWN"},
			want: mapping.TypeDirect,
		},
		{
			name: "conditional keyword beats transform function",
			row:  RuleRow{Target: "PLAN", Source: "PRODUCT_LINE", Rule: "IF PRODUCT_LINE IN (A,B) THEN UPPER(X) ELSE Y"},
			want: mapping.TypeConditional,
		},
		{
			name: "case when keyword",
			row:  RuleRow{Target: "TIER", Rule: "CASE WHEN STATE = 'CA' THEN WEST END"},
			want: mapping.TypeConditional,
		},
		{
			name: "known function name",
			row:  RuleRow{Target: "NAME", Rule: "UPPER(FIRST_NAME)"},
			want: mapping.TypeTransform,
		},
		{
			name: "lowercase function name",
			row:  RuleRow{Target: "NAME", Rule: "concat(CITY, ', ', STATE)"},
			want: mapping.TypeTransform,
		},
		{
			name: "unknown call with balanced parens",
			row:  RuleRow{Target: "X", Rule: "frobnicate(Y)"},
			want: mapping.TypeTransform,
		},
		{
			name: "empty rule text with source",
			row:  RuleRow{Target: "ID", Source: "SRC_ID"},
			want: mapping.TypeDirect,
		},
		{
			name: "DIRECT marker",
			row:  RuleRow{Target: "ID", Source: "SRC_ID", Rule: "direct"},
			want: mapping.TypeDirect,
		},
		{
			name: "COPY marker",
			row:  RuleRow{Target: "ID", Source: "SRC_ID", Rule: "COPY"},
			want: mapping.TypeDirect,
		},
		{
			name: "assignment with source",
			row:  RuleRow{Target: "ID", Source: "SRC_ID", Rule: "ID = SRC_ID"},
			want: mapping.TypeDirect,
		},
		{
			name: "NULL keyword without source",
			row:  RuleRow{Target: "FAX", Rule: "NULL"},
			want: mapping.TypeDefault,
		},
		{
			// The balanced parens win over the default markers; the row
			// still ends up a default at parse time via the TODAY() atom.
			name: "TODAY marker without source",
			row:  RuleRow{Target: "RUN_DATE", Rule: "TODAY()"},
			want: mapping.TypeTransform,
		},
		{
			name: "fallback with source",
			row:  RuleRow{Target: "ID", Source: "SRC_ID", Rule: "copy the value verbatim"},
			want: mapping.TypeDirect,
		},
		{
			name: "fallback without source",
			row:  RuleRow{Target: "ID", Rule: "ask upstream team"},
			want: mapping.TypeDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.row); got != tt.want {
				t.Errorf("Classify(%+v) = %q, want %q", tt.row, got, tt.want)
			}
		})
	}
}

// TestClassifyDeterministic tests that classification is a pure function.
func TestClassifyDeterministic(t *testing.T) {
	row := RuleRow{Target: "PLAN", Source: "PRODUCT_LINE", Rule: "IF PRODUCT_LINE = A THEN X"}
	first := Classify(row)
	for i := 0; i < 10; i++ {
		if got := Classify(row); got != first {
			t.Fatalf("Classify() not deterministic: got %q then %q", first, got)
		}
	}
}

// TestHasBalancedCall tests the paren balance check used by classification.
func TestHasBalancedCall(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"foo(x)", true},
		{"foo(bar(x), y)", true},
		{"foo(", false},
		{"foo)", false},
		{")foo(", false},
		{"no parens", false},
	}

	for _, tt := range tests {
		if got := hasBalancedCall(tt.input); got != tt.want {
			t.Errorf("hasBalancedCall(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

package config

import (
	"strings"
	"testing"
)

func TestConvertToJob(t *testing.T) {
	data := parseData(t, validJobJSON)

	job, err := ConvertToJob(data)
	if err != nil {
		t.Fatalf("ConvertToJob failed: %v", err)
	}

	if len(job.SourceFields) != 3 {
		t.Errorf("expected 3 source fields, got %d", len(job.SourceFields))
	}
	if len(job.ExpectedFields) != 2 {
		t.Errorf("expected 2 expected fields, got %d", len(job.ExpectedFields))
	}
	if len(job.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(job.Rules))
	}
	if job.Rules[1]["default"] != "1900-01-01" {
		t.Errorf("expected default cell '1900-01-01', got %q", job.Rules[1]["default"])
	}
	if job.Options.Strict {
		t.Error("expected strict option to be false")
	}
}

func TestConvertToJob_CellCoercion(t *testing.T) {
	data := parseData(t, `{
		"expected_fields": ["Amount"],
		"rules": [{"target": "Amount", "default": 0, "comment": null, "rule": 2.5}]
	}`)

	job, err := ConvertToJob(data)
	if err != nil {
		t.Fatalf("ConvertToJob failed: %v", err)
	}

	row := job.Rules[0]
	if row["default"] != "0" {
		t.Errorf("expected numeric default to read as '0', got %q", row["default"])
	}
	if row["comment"] != "" {
		t.Errorf("expected null comment to read as empty, got %q", row["comment"])
	}
	if row["rule"] != "2.5" {
		t.Errorf("expected fractional cell to read as '2.5', got %q", row["rule"])
	}
}

func TestConvertToJob_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing expected_fields",
			content: `{"rules": [{"target": "A"}]}`,
			wantErr: "expected_fields",
		},
		{
			name:    "missing rules",
			content: `{"expected_fields": ["A"]}`,
			wantErr: "rules",
		},
		{
			name:    "non-string field name",
			content: `{"expected_fields": ["A", 3], "rules": [{"target": "A"}]}`,
			wantErr: "expected_fields[1]",
		},
		{
			name:    "non-object rule",
			content: `{"expected_fields": ["A"], "rules": ["A"]}`,
			wantErr: "index 0",
		},
		{
			name:    "non-boolean strict",
			content: `{"expected_fields": ["A"], "rules": [{"target": "A"}], "options": {"strict": "yes"}}`,
			wantErr: "options.strict",
		},
		{
			name:    "fractional count",
			content: `{"expected_fields": ["A"], "rules": [{"target": "A"}], "options": {"expected_rule_count": 1.5}}`,
			wantErr: "expected_rule_count",
		},
		{
			name:    "negative count",
			content: `{"expected_fields": ["A"], "rules": [{"target": "A"}], "options": {"expected_rule_count": -1}}`,
			wantErr: "negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ConvertToJob(parseData(t, tt.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestJobRuleRows(t *testing.T) {
	job, result := LoadJobString(`{
		"source_fields": ["first_name", "dob"],
		"expected_fields": ["FullName", "BirthDate"],
		"rules": [
			{"Target Field": "FullName", "Source Field": "first_name", "Rule": "UPPER(first_name)"},
			{"Target Field": "BirthDate", "Source Field": "dob", "Default": "1900-01-01"}
		]
	}`, "json")
	if job == nil {
		t.Fatalf("expected job to load, got: %v", result.AllErrors())
	}

	rows, err := job.RuleRows()
	if err != nil {
		t.Fatalf("RuleRows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Target != "FullName" || rows[0].Rule != "UPPER(first_name)" {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Source != "dob" || rows[1].Default != "1900-01-01" {
		t.Errorf("unexpected second row: %+v", rows[1])
	}
}

func TestJobRuleRows_NoTargetColumn(t *testing.T) {
	job := &Job{
		Rules: []map[string]string{{"Rule": "TRIM(a)"}},
	}

	_, err := job.RuleRows()
	if err == nil {
		t.Fatal("expected an error when no target column resolves")
	}
}

func TestJobBuildOptions(t *testing.T) {
	job := &Job{
		Options: JobOptions{
			Strict:            true,
			ExpectedRuleCount: 4,
		},
	}

	opts := job.BuildOptions()
	if !opts.Strict {
		t.Error("expected strict build options")
	}
	if opts.ExpectedRuleCount != 4 {
		t.Errorf("expected rule count 4, got %d", opts.ExpectedRuleCount)
	}
}

func TestLoadJob(t *testing.T) {
	path := writeTempFile(t, "job.yaml", validJobYAML)

	job, result := LoadJob(path)
	if job == nil {
		t.Fatalf("expected job to load, got: %v", result.AllErrors())
	}
	if !result.IsValid() {
		t.Errorf("expected valid result, got: %v", result.AllErrors())
	}
	if !job.Options.Strict || job.Options.ExpectedRuleCount != 1 {
		t.Errorf("unexpected options: %+v", job.Options)
	}
}

func TestLoadJob_InvalidDocument(t *testing.T) {
	path := writeTempFile(t, "job.json", `{"expected_fields": ["A"]}`)

	job, result := LoadJob(path)
	if job != nil {
		t.Error("expected no job for an invalid document")
	}
	if result.IsValid() {
		t.Error("expected validation errors")
	}
}

func TestCollectHeaders(t *testing.T) {
	rows := []map[string]string{
		{"target": "A", "rule": "TRIM(a)"},
		{"target": "B", "default": "x"},
	}

	headers := collectHeaders(rows)

	want := []string{"rule", "target", "default"}
	if len(headers) != len(want) {
		t.Fatalf("expected %d headers, got %v", len(want), headers)
	}
	for i := range want {
		if headers[i] != want[i] {
			t.Errorf("headers[%d] = %q, want %q", i, headers[i], want[i])
		}
	}
}

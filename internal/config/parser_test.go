package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validJobJSON = `{
  "source_fields": ["first_name", "last_name", "dob"],
  "expected_fields": ["FullName", "BirthDate"],
  "rules": [
    {"target": "FullName", "rule": "CONCAT(first_name, ' ', last_name)"},
    {"target": "BirthDate", "source": "dob", "rule": "TO_DATE(dob, 'yyyyMMdd')", "default": "1900-01-01"}
  ],
  "options": {"strict": false}
}`

const validJobYAML = `source_fields:
  - first_name
  - last_name
expected_fields:
  - FullName
rules:
  - target: FullName
    rule: CONCAT(first_name, ' ', last_name)
options:
  strict: true
  expected_rule_count: 1
`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestParseJSONString_Valid(t *testing.T) {
	result := ParseJSONString(validJobJSON)

	if !result.IsValid() {
		t.Fatalf("expected valid result, got errors: %v", result.Errors)
	}
	if result.Format != "json" {
		t.Errorf("expected format 'json', got '%s'", result.Format)
	}
	if _, ok := result.Data["expected_fields"]; !ok {
		t.Error("expected expected_fields in parsed data")
	}
	rules, ok := result.Data["rules"].([]interface{})
	if !ok {
		t.Fatalf("expected rules to be a list, got %T", result.Data["rules"])
	}
	if len(rules) != 2 {
		t.Errorf("expected 2 rules, got %d", len(rules))
	}
}

func TestParseJSONString_SyntaxError(t *testing.T) {
	result := ParseJSONString("{\n  \"rules\": [\n")

	if result.IsValid() {
		t.Fatal("expected parsing to fail for truncated JSON")
	}
	if result.Errors[0].Type != ErrorTypeSyntax {
		t.Errorf("expected error type '%s', got '%s'", ErrorTypeSyntax, result.Errors[0].Type)
	}
	if result.Errors[0].Offset == 0 && result.Errors[0].Line == 0 {
		t.Error("expected location information on syntax error")
	}
}

func TestParseJSONString_NotAnObject(t *testing.T) {
	result := ParseJSONString(`["a", "b"]`)

	if result.IsValid() {
		t.Fatal("expected parsing to fail for a JSON array")
	}
	if result.Errors[0].Type != ErrorTypeFormat {
		t.Errorf("expected error type '%s', got '%s'", ErrorTypeFormat, result.Errors[0].Type)
	}
}

func TestParseJSONString_Empty(t *testing.T) {
	result := ParseJSONString("   ")

	if result.IsValid() {
		t.Error("expected parsing to fail for empty content")
	}
}

func TestParseYAMLString_Valid(t *testing.T) {
	result := ParseYAMLString(validJobYAML)

	if !result.IsValid() {
		t.Fatalf("expected valid result, got errors: %v", result.Errors)
	}
	if result.Format != "yaml" {
		t.Errorf("expected format 'yaml', got '%s'", result.Format)
	}
	options, ok := result.Data["options"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected options to be a mapping, got %T", result.Data["options"])
	}
	if strict, _ := options["strict"].(bool); !strict {
		t.Error("expected options.strict to be true")
	}
}

func TestParseYAMLString_SyntaxError(t *testing.T) {
	result := ParseYAMLString("rules:\n  - target: A\n   bad_indent: x\n")

	if result.IsValid() {
		t.Fatal("expected parsing to fail for bad indentation")
	}
	if result.Errors[0].Type != ErrorTypeSyntax {
		t.Errorf("expected error type '%s', got '%s'", ErrorTypeSyntax, result.Errors[0].Type)
	}
	if result.Errors[0].Line == 0 {
		t.Errorf("expected line information, got: %+v", result.Errors[0])
	}
}

func TestParseYAMLString_NotAMapping(t *testing.T) {
	result := ParseYAMLString("- a\n- b\n")

	if result.IsValid() {
		t.Fatal("expected parsing to fail for a YAML sequence")
	}
	if result.Errors[0].Type != ErrorTypeFormat {
		t.Errorf("expected error type '%s', got '%s'", ErrorTypeFormat, result.Errors[0].Type)
	}
}

func TestParseJSONFile_NonExistent(t *testing.T) {
	result := ParseJSONFile(filepath.Join(t.TempDir(), "does-not-exist.json"))

	if result.IsValid() {
		t.Fatal("expected parsing to fail for a missing file")
	}
	if result.Errors[0].Type != ErrorTypeIO {
		t.Errorf("expected error type '%s', got '%s'", ErrorTypeIO, result.Errors[0].Type)
	}
	if result.Errors[0].Path == "" {
		t.Error("expected error to carry the file path")
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"job.json", "json"},
		{"job.yaml", "yaml"},
		{"job.yml", "yaml"},
		{"JOB.JSON", "json"},
		{"job.txt", ""},
		{"job", ""},
	}

	for _, tt := range tests {
		if got := DetectFormat(tt.path); got != tt.want {
			t.Errorf("DetectFormat(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestIsJSONAndIsYAML(t *testing.T) {
	if !IsJSON(`{"a": 1}`) {
		t.Error("expected object content to read as JSON")
	}
	if IsJSON("a: 1\n") {
		t.Error("expected YAML mapping not to read as JSON")
	}
	if !IsYAML("a: 1\n") {
		t.Error("expected mapping content to read as YAML")
	}
	if IsYAML("") {
		t.Error("expected empty content not to read as YAML")
	}
}

func TestParseJob_JSONFile(t *testing.T) {
	path := writeTempFile(t, "job.json", validJobJSON)

	result := ParseJob(path)

	if !result.IsValid() {
		t.Fatalf("expected valid result, got: %v", result.AllErrors())
	}
	if result.Format != "json" {
		t.Errorf("expected format 'json', got '%s'", result.Format)
	}
	if result.FilePath != path {
		t.Errorf("expected file path %q, got %q", path, result.FilePath)
	}
}

func TestParseJob_YAMLFile(t *testing.T) {
	path := writeTempFile(t, "job.yaml", validJobYAML)

	result := ParseJob(path)

	if !result.IsValid() {
		t.Fatalf("expected valid result, got: %v", result.AllErrors())
	}
	if result.Format != "yaml" {
		t.Errorf("expected format 'yaml', got '%s'", result.Format)
	}
}

func TestParseJob_UnknownExtensionAutoDetect(t *testing.T) {
	path := writeTempFile(t, "job.conf", validJobJSON)

	result := ParseJob(path)

	if !result.IsValid() {
		t.Fatalf("expected valid result via auto-detection, got: %v", result.AllErrors())
	}
	if result.Format != "json" {
		t.Errorf("expected auto-detected format 'json', got '%s'", result.Format)
	}
}

func TestParseJob_SkipsValidationOnParseError(t *testing.T) {
	path := writeTempFile(t, "job.json", "{ broken")

	result := ParseJob(path)

	if len(result.ParseErrors) == 0 {
		t.Fatal("expected parse errors")
	}
	if len(result.ValidationErrors) != 0 {
		t.Errorf("expected no validation errors when parsing fails, got: %v", result.ValidationErrors)
	}
}

func TestParseJobString_AutoDetect(t *testing.T) {
	result := ParseJobString(validJobYAML, "")

	if !result.IsValid() {
		t.Fatalf("expected valid result, got: %v", result.AllErrors())
	}
	if result.Format != "yaml" {
		t.Errorf("expected auto-detected format 'yaml', got '%s'", result.Format)
	}
}

func TestParseJobString_UnsupportedFormat(t *testing.T) {
	result := ParseJobString(validJobJSON, "toml")

	if result.IsValid() {
		t.Fatal("expected failure for unsupported format")
	}
	if !strings.Contains(result.ParseErrors[0].Message, "unsupported format") {
		t.Errorf("unexpected error message: %s", result.ParseErrors[0].Message)
	}
}

func TestParseErrorString(t *testing.T) {
	err := ParseError{Path: "job.yaml", Line: 3, Column: 7, Message: "bad value"}
	got := err.Error()
	if !strings.Contains(got, "job.yaml") || !strings.Contains(got, "line 3") || !strings.Contains(got, "column 7") {
		t.Errorf("unexpected error string: %s", got)
	}
}

func TestOffsetToLineColumn(t *testing.T) {
	content := "ab\ncd\nef"

	tests := []struct {
		offset   int64
		wantLine int
		wantCol  int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{7, 3, 2},
	}

	for _, tt := range tests {
		line, col := offsetToLineColumn(content, tt.offset)
		if line != tt.wantLine || col != tt.wantCol {
			t.Errorf("offsetToLineColumn(%d) = (%d, %d), want (%d, %d)",
				tt.offset, line, col, tt.wantLine, tt.wantCol)
		}
	}
}

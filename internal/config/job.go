package config

import (
	"fmt"
	"sort"

	"github.com/achui1980/agent-krystal/internal/rules"
)

// Job is a fully converted mapping-job document: the field-name lists, the
// raw rule rows keyed by their document column names, and the build options.
type Job struct {
	SourceFields   []string
	ExpectedFields []string
	Rules          []map[string]string
	Options        JobOptions
}

// JobOptions carries the build options from the document's options section.
// Zero counts disable the corresponding check.
type JobOptions struct {
	Strict                   bool
	ExpectedSourceFieldCount int
	ExpectedTargetFieldCount int
	ExpectedRuleCount        int
}

// ConvertToJob converts parsed document data to a Job struct.
// The input data should have been validated against the schema before
// calling this function.
//
// The document is expected to have this structure:
//
//	{
//	  "source_fields": ["..."],
//	  "expected_fields": ["..."],
//	  "rules": [{"target": "...", "source": "...", "rule": "...", ...}],
//	  "options": {"strict": true, ...}
//	}
func ConvertToJob(data map[string]interface{}) (*Job, error) {
	if data == nil {
		return nil, fmt.Errorf("job document is nil")
	}

	job := &Job{}

	var err error
	if job.SourceFields, err = convertStringList(data["source_fields"], "source_fields"); err != nil {
		return nil, err
	}

	if _, ok := data["expected_fields"]; !ok {
		return nil, fmt.Errorf("missing required field 'expected_fields'")
	}
	if job.ExpectedFields, err = convertStringList(data["expected_fields"], "expected_fields"); err != nil {
		return nil, err
	}

	rulesData, ok := data["rules"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'rules' section")
	}
	job.Rules = make([]map[string]string, 0, len(rulesData))
	for i, item := range rulesData {
		row, okRow := item.(map[string]interface{})
		if !okRow {
			return nil, fmt.Errorf("invalid rule at index %d: expected object, got %T", i, item)
		}
		converted := make(map[string]string, len(row))
		for key, value := range row {
			converted[key] = cellString(value)
		}
		job.Rules = append(job.Rules, converted)
	}

	if optionsData, okOpts := data["options"].(map[string]interface{}); okOpts {
		if job.Options, err = convertOptions(optionsData); err != nil {
			return nil, err
		}
	}

	return job, nil
}

// RuleRows resolves the document's rule columns against the known header
// synonyms and converts every rule into a RuleRow. Column resolution uses
// the union of row keys, in first-seen order, as the header list.
func (j *Job) RuleRows() ([]rules.RuleRow, error) {
	headers := collectHeaders(j.Rules)

	cm, err := rules.ResolveColumns(headers)
	if err != nil {
		return nil, err
	}

	rows := make([]rules.RuleRow, 0, len(j.Rules))
	for _, row := range j.Rules {
		rows = append(rows, rules.RowFromRecord(cm, row))
	}
	return rows, nil
}

// BuildOptions converts the job's options into builder options.
func (j *Job) BuildOptions() rules.Options {
	return rules.Options{
		Strict:                   j.Options.Strict,
		ExpectedSourceFieldCount: j.Options.ExpectedSourceFieldCount,
		ExpectedTargetFieldCount: j.Options.ExpectedTargetFieldCount,
		ExpectedRuleCount:        j.Options.ExpectedRuleCount,
	}
}

// LoadJob parses, validates, and converts a mapping-job file. The returned
// Result always carries the parse and validation detail; Job is nil when the
// document could not be loaded.
func LoadJob(filepath string) (*Job, *Result) {
	result := ParseJob(filepath)
	if !result.IsValid() {
		return nil, result
	}

	job, err := ConvertToJob(result.Data)
	if err != nil {
		result.ValidationErrors = append(result.ValidationErrors, ValidationError{
			Path:    "/",
			Type:    "conversion",
			Message: err.Error(),
		})
		return nil, result
	}
	return job, result
}

// LoadJobString is LoadJob for in-memory content; format may be empty for
// auto-detection.
func LoadJobString(content, format string) (*Job, *Result) {
	result := ParseJobString(content, format)
	if !result.IsValid() {
		return nil, result
	}

	job, err := ConvertToJob(result.Data)
	if err != nil {
		result.ValidationErrors = append(result.ValidationErrors, ValidationError{
			Path:    "/",
			Type:    "conversion",
			Message: err.Error(),
		})
		return nil, result
	}
	return job, result
}

// convertStringList converts an optional list of strings. A missing value
// yields an empty list.
func convertStringList(value interface{}, field string) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	list, ok := value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid '%s': expected list, got %T", field, value)
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		s, okItem := item.(string)
		if !okItem {
			return nil, fmt.Errorf("invalid '%s[%d]': expected string, got %T", field, i, item)
		}
		out = append(out, s)
	}
	return out, nil
}

// convertOptions converts the options section.
func convertOptions(data map[string]interface{}) (JobOptions, error) {
	var opts JobOptions

	if strict, ok := data["strict"]; ok {
		b, okBool := strict.(bool)
		if !okBool {
			return opts, fmt.Errorf("invalid 'options.strict': expected boolean, got %T", strict)
		}
		opts.Strict = b
	}

	counts := []struct {
		key string
		dst *int
	}{
		{"expected_source_field_count", &opts.ExpectedSourceFieldCount},
		{"expected_target_field_count", &opts.ExpectedTargetFieldCount},
		{"expected_rule_count", &opts.ExpectedRuleCount},
	}
	for _, c := range counts {
		value, ok := data[c.key]
		if !ok {
			continue
		}
		n, err := toInt(value)
		if err != nil {
			return opts, fmt.Errorf("invalid 'options.%s': %v", c.key, err)
		}
		if n < 0 {
			return opts, fmt.Errorf("invalid 'options.%s': must not be negative", c.key)
		}
		*c.dst = n
	}

	return opts, nil
}

// toInt accepts the integer representations the two decoders produce:
// encoding/json gives float64, yaml.v3 gives int.
func toInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		n := int(v)
		if float64(n) != v {
			return 0, fmt.Errorf("expected integer, got %v", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", value)
	}
}

// cellString renders a rule cell as text. Numbers and booleans keep their
// document spelling as closely as the decoders allow; null reads as empty.
func cellString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// collectHeaders builds a deterministic header list from the union of row
// keys: rows in document order, keys sorted alphabetically within each row.
func collectHeaders(rows []map[string]string) []string {
	var headers []string
	seen := make(map[string]bool)
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for key := range row {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if !seen[key] {
				seen[key] = true
				headers = append(headers, key)
			}
		}
	}
	return headers
}

package rules

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"go.uber.org/multierr"

	"github.com/achui1980/agent-krystal/internal/logger"
	"github.com/achui1980/agent-krystal/pkg/mapping"
)

// Options configures spec building. The expected counts come from the rules
// template; a zero count disables that check.
type Options struct {
	// Strict turns schema mismatches into a build failure. Lenient builds
	// record them as warnings and proceed.
	Strict bool

	ExpectedSourceFieldCount int
	ExpectedTargetFieldCount int
	ExpectedRuleCount        int
}

// Build assembles the full mapping spec from the two field-name lists and
// the raw rule rows. Rows with an empty target are skipped; rows whose
// condition or transform text fails to parse are downgraded and recorded in
// diagnostics. After parsing, used and unused source fields are derived and
// target/source coverage is validated against the field lists.
//
// In strict mode every schema violation found during the build is collected
// and returned together as a single SchemaMismatchError; lenient mode
// records the same findings as warnings and returns the spec.
func Build(sourceFields, expectedFields []string, rows []RuleRow, opts Options) (*mapping.Spec, error) {
	srcFields := normalizeFields(sourceFields)
	expFields := normalizeFields(expectedFields)

	diags := mapping.NewDiagnostics()
	var violations error

	report := func(msg string) {
		if opts.Strict {
			violations = multierr.Append(violations, errors.New(msg))
		} else {
			diags.Warnings = append(diags.Warnings, msg)
		}
	}

	if opts.ExpectedSourceFieldCount > 0 && len(srcFields) != opts.ExpectedSourceFieldCount {
		report(fmt.Sprintf("source field count mismatch: got %d expected %d",
			len(srcFields), opts.ExpectedSourceFieldCount))
	}
	if opts.ExpectedTargetFieldCount > 0 && len(expFields) != opts.ExpectedTargetFieldCount {
		report(fmt.Sprintf("expected field count mismatch: got %d expected %d",
			len(expFields), opts.ExpectedTargetFieldCount))
	}

	entries := []mapping.MappingEntry{}
	for _, row := range rows {
		entry, unparsed, err := ParseRuleRow(row)
		if err != nil {
			// Only empty-target rows error; skip them.
			continue
		}
		if unparsed != nil {
			diags.UnparsedRules = append(diags.UnparsedRules, *unparsed)
			logger.Debug("rule row downgraded",
				slog.String("target", unparsed.Target),
				slog.String("rule", unparsed.Rule),
				slog.String("error", unparsed.Error),
			)
		}
		entries = append(entries, entry)
	}

	if opts.ExpectedRuleCount > 0 && len(entries) != opts.ExpectedRuleCount {
		report(fmt.Sprintf("rule count mismatch: got %d expected %d",
			len(entries), opts.ExpectedRuleCount))
	}

	used := []string{}
	seen := map[string]bool{}
	for _, e := range entries {
		if e.Source != "" && !seen[e.Source] {
			seen[e.Source] = true
			used = append(used, e.Source)
		}
	}
	unused := []string{}
	for _, f := range srcFields {
		if !seen[f] {
			unused = append(unused, f)
		}
	}

	validateCoverage(entries, srcFields, expFields, &diags)

	if opts.Strict && len(diags.MissingExpectedFields) > 0 {
		violations = multierr.Append(violations, fmt.Errorf(
			"mappings contain targets not in expected schema: %v", diags.MissingExpectedFields))
	}
	if violations != nil {
		return nil, &SchemaMismatchError{Err: violations}
	}

	spec := &mapping.Spec{
		SourceFields:       srcFields,
		ExpectedFields:     expFields,
		FieldMappings:      entries,
		UsedSourceFields:   used,
		UnusedSourceFields: unused,
		Diagnostics:        diags,
	}

	logger.Info("mapping spec built",
		slog.Int("source_fields", len(srcFields)),
		slog.Int("expected_fields", len(expFields)),
		slog.Int("rule_count", len(entries)),
		slog.Int("unused_source_fields", len(unused)),
		slog.Int("unparsed_rules", len(diags.UnparsedRules)),
		slog.Bool("strict", opts.Strict),
	)
	if spec.Degraded() {
		logger.Warn("spec built with unparsed rules",
			slog.Int("unparsed_rules", len(diags.UnparsedRules)),
		)
	}

	return spec, nil
}

// validateCoverage checks every entry's target against the expected field
// list and its source against the source field list, filling the missing
// field diagnostics sorted and deduplicated.
func validateCoverage(entries []mapping.MappingEntry, srcFields, expFields []string, diags *mapping.Diagnostics) {
	srcSet := map[string]bool{}
	for _, f := range srcFields {
		srcSet[f] = true
	}
	expSet := map[string]bool{}
	for _, f := range expFields {
		expSet[f] = true
	}

	missingExp := map[string]bool{}
	missingSrc := map[string]bool{}
	for _, e := range entries {
		if !expSet[e.Target] {
			missingExp[e.Target] = true
		}
		if e.Source != "" && !srcSet[e.Source] {
			missingSrc[e.Source] = true
		}
	}

	diags.MissingExpectedFields = sortedKeys(missingExp)
	diags.MissingSourceFields = sortedKeys(missingSrc)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeFields(fields []string) []string {
	out := []string{}
	for _, f := range fields {
		if n := mapping.NormalizeField(f); n != "" {
			out = append(out, n)
		}
	}
	return out
}

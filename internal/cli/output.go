package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/achui1980/agent-krystal/pkg/mapping"
)

// OutputOptions configures CLI output behavior.
type OutputOptions struct {
	Verbose bool
	Quiet   bool
}

// PrintSpecSummary displays a built mapping spec: field counts, mapping
// type breakdown, and any degradation.
func PrintSpecSummary(spec *mapping.Spec, opts OutputOptions) {
	if spec == nil {
		fmt.Fprintln(os.Stderr, "✗ No mapping spec available")
		return
	}
	if opts.Quiet {
		return
	}

	if spec.Degraded() {
		fmt.Println("⚠ Mapping spec built with degraded rules")
	} else {
		fmt.Println("✓ Mapping spec built")
	}
	fmt.Printf("  Source fields: %d (%d used, %d unused)\n",
		len(spec.SourceFields), len(spec.UsedSourceFields), len(spec.UnusedSourceFields))
	fmt.Printf("  Expected fields: %d\n", len(spec.ExpectedFields))
	fmt.Printf("  Mappings: %d%s\n", len(spec.FieldMappings), formatTypeBreakdown(spec.FieldMappings))

	PrintDiagnostics(spec.Diagnostics, opts)
}

// formatTypeBreakdown renders a per-type mapping count, e.g.
// " (3 direct, 1 transform)". Empty when there are no mappings.
func formatTypeBreakdown(entries []mapping.MappingEntry) string {
	if len(entries) == 0 {
		return ""
	}

	counts := make(map[mapping.MappingType]int)
	for _, e := range entries {
		counts[e.Type]++
	}

	order := []mapping.MappingType{
		mapping.TypeDirect,
		mapping.TypeDefault,
		mapping.TypeConditional,
		mapping.TypeTransform,
	}
	var parts []string
	for _, mt := range order {
		if n := counts[mt]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, mt))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// PrintDiagnostics displays the spec diagnostics. Compact mode shows counts
// only; verbose mode lists every entry.
func PrintDiagnostics(diags mapping.Diagnostics, opts OutputOptions) {
	if opts.Quiet {
		return
	}

	if len(diags.MissingSourceFields) > 0 {
		fmt.Printf("  ⚠ Missing source fields: %s\n", formatFieldList(diags.MissingSourceFields, opts.Verbose))
	}
	if len(diags.MissingExpectedFields) > 0 {
		fmt.Printf("  ⚠ Unmapped expected fields: %s\n", formatFieldList(diags.MissingExpectedFields, opts.Verbose))
	}
	if len(diags.UnparsedRules) > 0 {
		fmt.Printf("  ⚠ Unparsed rules: %d\n", len(diags.UnparsedRules))
		if opts.Verbose {
			for _, ur := range diags.UnparsedRules {
				fmt.Printf("    %s: %s (%s)\n", ur.Target, ur.Rule, ur.Error)
			}
		}
	}
	if len(diags.Warnings) > 0 {
		fmt.Printf("  ⚠ Warnings: %d\n", len(diags.Warnings))
		if opts.Verbose {
			for _, w := range diags.Warnings {
				fmt.Printf("    %s\n", w)
			}
		}
	}
}

// formatFieldList renders a field list, truncated to five entries unless
// verbose.
func formatFieldList(fields []string, verbose bool) string {
	const maxCompact = 5
	if verbose || len(fields) <= maxCompact {
		return strings.Join(fields, ", ")
	}
	return fmt.Sprintf("%s, ... (%d more)",
		strings.Join(fields[:maxCompact], ", "), len(fields)-maxCompact)
}

// PrintApplySummary displays the outcome of applying a spec to a batch of
// records.
func PrintApplySummary(records int, warnings []string, elapsed time.Duration, opts OutputOptions) {
	if opts.Quiet {
		return
	}

	if len(warnings) > 0 {
		fmt.Printf("⚠ Applied mappings to %d records with %d warnings\n", records, len(warnings))
		if opts.Verbose {
			printWarnings(warnings)
		} else {
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Hint: Use --verbose for per-field warnings")
		}
	} else {
		fmt.Printf("✓ Applied mappings to %d records\n", records)
	}

	if opts.Verbose {
		fmt.Printf("  Duration: %v\n", elapsed)
	}
}

// printWarnings prints the first lines of a warning list, truncated past
// ten entries.
func printWarnings(warnings []string) {
	const maxLines = 10
	for i, w := range warnings {
		if i == maxLines {
			fmt.Printf("  ... (%d more warnings)\n", len(warnings)-maxLines)
			return
		}
		fmt.Printf("  %s\n", w)
	}
}

// PrintJobSummary prints the loaded job's field and rule counts.
func PrintJobSummary(sourceFields, expectedFields, rules int, opts OutputOptions) {
	if opts.Quiet {
		return
	}
	fmt.Printf("  Job: %d source fields, %d expected fields, %d rules\n",
		sourceFields, expectedFields, rules)
}

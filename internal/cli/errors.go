// Package cli provides CLI output formatting, exit-code mapping, and
// display functions.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/achui1980/agent-krystal/internal/config"
	"github.com/achui1980/agent-krystal/internal/rules"
)

// Exit codes used by every subcommand.
const (
	ExitOK         = 0
	ExitValidation = 1
	ExitParse      = 2
	ExitRuntime    = 3
)

// ExitCode maps an error to the documented exit codes: schema/strict
// validation failures exit 1, document and rule parsing failures exit 2,
// everything else (IO, CSV, cancellation) exits 3.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var mismatch *rules.SchemaMismatchError
	if errors.As(err, &mismatch) {
		return ExitValidation
	}

	var ruleSchema *rules.RuleSchemaError
	var ambiguous *rules.AmbiguousConditionError
	var transform *rules.TransformParseError
	if errors.As(err, &ruleSchema) || errors.As(err, &ambiguous) || errors.As(err, &transform) {
		return ExitParse
	}

	var parseErr config.ParseError
	if errors.As(err, &parseErr) {
		return ExitParse
	}

	var validationErr config.ValidationError
	if errors.As(err, &validationErr) {
		return ExitValidation
	}

	return ExitRuntime
}

// PrintParseErrors prints parse errors to stderr.
func PrintParseErrors(errors []config.ParseError, verbose bool) {
	fmt.Fprintln(os.Stderr, "✗ Parse errors:")
	for _, err := range errors {
		printSingleParseError(err, verbose)
	}
}

// printSingleParseError prints a single parse error with location information.
func printSingleParseError(err config.ParseError, verbose bool) {
	location := formatErrorLocation(err.Path, err.Line, err.Column)

	if location != "" {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", location, err.Message)
	} else {
		fmt.Fprintf(os.Stderr, "  %s\n", err.Message)
	}

	if verbose && err.Type != "" {
		fmt.Fprintf(os.Stderr, "    Type: %s\n", err.Type)
	}
}

// formatErrorLocation formats the error location string (path:line:column).
func formatErrorLocation(path string, line, column int) string {
	if path == "" {
		return ""
	}

	location := path
	if line > 0 {
		location += fmt.Sprintf(":%d", line)
		if column > 0 {
			location += fmt.Sprintf(":%d", column)
		}
	}
	return location
}

// PrintValidationErrors prints validation errors to stderr.
func PrintValidationErrors(errors []config.ValidationError, verbose, quiet bool) {
	fmt.Fprintln(os.Stderr, "✗ Validation errors:")
	for _, err := range errors {
		printSingleValidationError(err, verbose)
	}
	printValidationHint(quiet)
}

// printSingleValidationError prints a single validation error.
func printSingleValidationError(err config.ValidationError, verbose bool) {
	path := err.Path
	if path == "" {
		path = "/"
	}

	if verbose {
		printVerboseValidationError(path, err)
	} else {
		printCompactValidationError(path, err.Message)
	}
}

// printVerboseValidationError prints detailed validation error information.
func printVerboseValidationError(path string, err config.ValidationError) {
	fmt.Fprintf(os.Stderr, "  %s:\n", path)
	fmt.Fprintf(os.Stderr, "    Message: %s\n", err.Message)
	if err.Type != "" {
		fmt.Fprintf(os.Stderr, "    Type: %s\n", err.Type)
	}
	if err.Expected != "" {
		fmt.Fprintf(os.Stderr, "    Expected: %s\n", err.Expected)
	}
}

// printCompactValidationError prints a compact validation error message.
func printCompactValidationError(path, message string) {
	shortMsg := message
	if len(shortMsg) > 80 {
		shortMsg = shortMsg[:77] + "..."
	}
	fmt.Fprintf(os.Stderr, "  %s: %s\n", path, shortMsg)
}

// printValidationHint prints a hint about verbose mode.
func printValidationHint(quiet bool) {
	if !quiet {
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Hint: Use --verbose for detailed error information")
	}
}

// PrintLoadResult prints every error carried by a job load result and
// returns the matching exit code. A valid result prints nothing and
// returns ExitOK.
func PrintLoadResult(result *config.Result, verbose, quiet bool) int {
	if result == nil {
		fmt.Fprintln(os.Stderr, "✗ No load result available")
		return ExitRuntime
	}
	if len(result.ParseErrors) > 0 {
		PrintParseErrors(result.ParseErrors, verbose)
		return ExitParse
	}
	if len(result.ValidationErrors) > 0 {
		PrintValidationErrors(result.ValidationErrors, verbose, quiet)
		return ExitValidation
	}
	return ExitOK
}

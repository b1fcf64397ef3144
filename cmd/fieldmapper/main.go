// Package main provides the CLI entry point for the fieldmapper engine.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/achui1980/agent-krystal/internal/cli"
	"github.com/achui1980/agent-krystal/internal/config"
	"github.com/achui1980/agent-krystal/internal/eval"
	"github.com/achui1980/agent-krystal/internal/logger"
	"github.com/achui1980/agent-krystal/internal/pathutil"
	"github.com/achui1980/agent-krystal/internal/rules"
	"github.com/achui1980/agent-krystal/pkg/mapping"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	logFile string

	// Subcommand flags
	outPath string
	strict  bool

	// Build information (set via ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(cli.ExitRuntime)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fieldmapper",
	Short: "Fieldmapper - Rule-driven field transformation engine",
	Long: `Fieldmapper builds executable mapping specs from declarative rule
tables and applies them to flat records.

A mapping job (JSON/YAML) names the source and expected fields and carries
the rule rows. Each rule is classified as a direct copy, a default, a
conditional, or a transform expression, then compiled into a spec that can
be exported as JSON or applied to CSV input.

Examples:
  # Validate a mapping job
  fieldmapper validate job.yaml

  # Build a spec and export it as JSON
  fieldmapper build job.yaml --out spec.json

  # Apply the mappings to a CSV file
  fieldmapper apply job.yaml input.csv --out output.csv`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		} else if quiet {
			level = slog.LevelError
		}
		if logFile != "" {
			if err := pathutil.ValidateFilePath(logFile); err != nil {
				fmt.Fprintf(os.Stderr, "✗ Invalid log file path: %v\n", err)
				os.Exit(cli.ExitRuntime)
			}
			if err := logger.SetLogFile(logFile, level, logger.FormatHuman); err != nil {
				fmt.Fprintf(os.Stderr, "✗ Failed to open log file: %v\n", err)
				os.Exit(cli.ExitRuntime)
			}
		} else {
			logger.SetLevel(level)
		}
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		logger.CloseLogFile()
	},
}

var buildCmd = &cobra.Command{
	Use:   "build <job-file>",
	Short: "Build a mapping spec from a job file",
	Long: `Build a mapping spec from a job file and export it as JSON.

The job file is validated against the schema, every rule row is classified
and parsed, and the resulting spec document is written to --out (stdout by
default). A degraded spec (some rules failed to parse and were downgraded)
still exports, with a warning summary.

Exit codes:
  0 - Spec built successfully
  1 - Validation errors (schema violations, strict-mode mismatches)
  2 - Parse errors (invalid JSON/YAML, unresolvable rule table)
  3 - Runtime errors

Examples:
  fieldmapper build job.yaml
  fieldmapper build job.json --out spec.json
  fieldmapper build --strict job.yaml`,
	Args: cobra.ExactArgs(1),
	Run:  runBuild,
}

var applyCmd = &cobra.Command{
	Use:   "apply <job-file> <input-csv>",
	Short: "Apply a mapping job to CSV records",
	Long: `Apply a mapping job to a CSV file and write the transformed records.

The CSV header row names the source fields. Every record is transformed
according to the built spec; output columns are the job's expected fields,
in order. Per-field failures never drop a record: the failing field gets
its configured default and a warning is recorded.

Exit codes:
  0 - Records transformed successfully
  1 - Validation errors
  2 - Parse errors
  3 - Runtime errors (IO, malformed CSV, cancellation)

Examples:
  fieldmapper apply job.yaml input.csv
  fieldmapper apply job.yaml input.csv --out output.csv`,
	Args: cobra.ExactArgs(2),
	Run:  runApply,
}

var validateCmd = &cobra.Command{
	Use:   "validate <job-file>",
	Short: "Validate a mapping job file",
	Long: `Validate a mapping job file against the schema and the strict build
checks.

The document is checked against the embedded JSON schema first, then the
spec is built in strict mode so that field-count mismatches and rule
targets outside the expected schema are reported.

Exit codes:
  0 - Job is valid
  1 - Validation errors (schema violations, strict-mode mismatches)
  2 - Parse errors (invalid JSON/YAML syntax, unresolvable rule table)

Examples:
  fieldmapper validate job.json
  fieldmapper validate --verbose job.yaml`,
	Args: cobra.ExactArgs(1),
	Run:  runValidate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version, commit hash, and build date information.",
	Run:   runVersion,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file")

	buildCmd.Flags().StringVar(&outPath, "out", "", "Write the spec JSON to this file instead of stdout")
	buildCmd.Flags().BoolVar(&strict, "strict", false, "Force strict validation regardless of job options")
	applyCmd.Flags().StringVar(&outPath, "out", "", "Write the output CSV to this file instead of stdout")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

func outputOptions() cli.OutputOptions {
	return cli.OutputOptions{Verbose: verbose, Quiet: quiet}
}

// loadJob loads and converts a job file, printing errors and exiting on
// failure.
func loadJob(jobPath string) *config.Job {
	if !quiet {
		fmt.Printf("Loading mapping job: %s\n", jobPath)
	}

	job, result := config.LoadJob(jobPath)
	if job == nil {
		os.Exit(cli.PrintLoadResult(result, verbose, quiet))
	}

	if verbose {
		cli.PrintJobSummary(len(job.SourceFields), len(job.ExpectedFields), len(job.Rules), outputOptions())
	}
	return job
}

// buildSpec builds the spec from a loaded job, printing errors and exiting
// on failure.
func buildSpec(job *config.Job, forceStrict bool) *mapping.Spec {
	rows, err := job.RuleRows()
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Failed to resolve rule table: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}

	opts := job.BuildOptions()
	if forceStrict {
		opts.Strict = true
	}

	spec, err := rules.Build(job.SourceFields, job.ExpectedFields, rows, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Failed to build mapping spec: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
	return spec
}

func runBuild(_ *cobra.Command, args []string) {
	job := loadJob(args[0])
	spec := buildSpec(job, strict)

	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Failed to encode spec: %v\n", err)
		os.Exit(cli.ExitRuntime)
	}

	if outPath == "" {
		fmt.Println(string(data))
		if spec.Degraded() {
			fmt.Fprintf(os.Stderr, "⚠ %d rules failed to parse and were downgraded\n",
				len(spec.Diagnostics.UnparsedRules))
		}
	} else {
		if err := pathutil.ValidateFilePath(outPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ Invalid output path: %v\n", err)
			os.Exit(cli.ExitRuntime)
		}
		if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "✗ Failed to write spec: %v\n", err)
			os.Exit(cli.ExitRuntime)
		}
		cli.PrintSpecSummary(spec, outputOptions())
		if !quiet {
			fmt.Printf("  Written to: %s\n", outPath)
		}
	}

	os.Exit(cli.ExitOK)
}

func runValidate(_ *cobra.Command, args []string) {
	jobPath := args[0]

	if !quiet {
		fmt.Printf("Validating mapping job: %s\n", jobPath)
	}

	result := config.ParseJob(jobPath)
	if code := cli.PrintLoadResult(result, verbose, quiet); code != cli.ExitOK {
		os.Exit(code)
	}

	job, err := config.ConvertToJob(result.Data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Invalid job document: %v\n", err)
		os.Exit(cli.ExitValidation)
	}

	// Strict build surfaces every schema mismatch at once.
	spec := buildSpec(job, true)

	if !quiet {
		fmt.Printf("✓ Mapping job is valid (format: %s)\n", result.Format)
		if verbose {
			cli.PrintSpecSummary(spec, outputOptions())
		}
	}

	os.Exit(cli.ExitOK)
}

func runApply(_ *cobra.Command, args []string) {
	jobPath, inputPath := args[0], args[1]

	runID := uuid.NewString()
	log := logger.WithRun(runID)

	job := loadJob(jobPath)
	spec := buildSpec(job, false)

	records, err := readCSVRecords(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Failed to read input: %v\n", err)
		os.Exit(cli.ExitRuntime)
	}
	log.Info("input loaded",
		slog.String("path", inputPath),
		slog.Int("records", len(records)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	started := time.Now()
	output, warnings, err := eval.ApplyBatch(ctx, spec, records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Apply aborted: %v\n", err)
		os.Exit(cli.ExitRuntime)
	}
	elapsed := time.Since(started)

	if err := writeCSVRecords(outPath, spec.ExpectedFields, output); err != nil {
		fmt.Fprintf(os.Stderr, "✗ Failed to write output: %v\n", err)
		os.Exit(cli.ExitRuntime)
	}

	log.Info("apply completed",
		slog.Int("records", len(output)),
		slog.Int("warnings", len(warnings)),
		slog.Duration("duration", elapsed))

	// When the CSV goes to stdout keep the summary on stderr.
	if outPath == "" {
		if !quiet && len(warnings) > 0 {
			fmt.Fprintf(os.Stderr, "⚠ %d warnings during apply\n", len(warnings))
		}
	} else {
		cli.PrintApplySummary(len(output), warnings, elapsed, outputOptions())
		if !quiet {
			fmt.Printf("  Written to: %s\n", outPath)
		}
	}

	os.Exit(cli.ExitOK)
}

func runVersion(_ *cobra.Command, _ []string) {
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Commit: %s\n", commit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// readCSVRecords reads a CSV file whose header row names the fields.
func readCSVRecords(path string) ([]mapping.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input: expected a CSV header row")
	}
	if err != nil {
		return nil, err
	}

	var records []mapping.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := make(mapping.Record, len(header))
		for i, name := range header {
			rec[name] = row[i]
		}
		records = append(records, rec)
	}
	return records, nil
}

// writeCSVRecords writes records as CSV with the given column order. An
// empty path writes to stdout.
func writeCSVRecords(path string, columns []string, records []mapping.Record) error {
	var w io.Writer = os.Stdout
	if path != "" {
		if err := pathutil.ValidateFilePath(path); err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for _, rec := range records {
		for i, name := range columns {
			row[i] = rec[name]
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

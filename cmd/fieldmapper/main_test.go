package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achui1980/agent-krystal/internal/cli"
)

const testJobYAML = `source_fields:
  - first_name
  - last_name
  - dob
  - status
expected_fields:
  - FullName
  - BirthDate
  - Status
rules:
  - target: FullName
    rule: CONCAT(first_name, ' ', last_name)
  - target: BirthDate
    source: dob
    rule: DATE_FORMAT(dob, 'yyyy-MM-dd')
    default: '1900-01-01'
  - target: Status
    source: status
`

const testInputCSV = `first_name,last_name,dob,status
John,Doe,20240115,active
Jane,Smith,19991231,inactive
`

// writeFixture writes a test fixture into dir and returns its path.
func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

// buildBinary builds the CLI once per test run.
func buildBinary(t *testing.T) string {
	t.Helper()
	binaryPath := filepath.Join(t.TempDir(), "fieldmapper")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
	if err := buildCmd.Run(); err != nil {
		buildCmd = exec.Command("go", "build", "-o", binaryPath, "./cmd/fieldmapper")
		buildCmd.Dir = filepath.Join("..", "..")
		if err := buildCmd.Run(); err != nil {
			t.Fatalf("failed to build CLI: %v", err)
		}
	}
	return binaryPath
}

// runCLI runs the CLI binary and returns stdout, stderr, and exit code.
func runCLI(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	cmd := exec.Command(buildBinary(t), args...)
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("failed to run CLI: %v", err)
		}
	}

	return stdout, stderr, exitCode
}

func TestCLI_Help(t *testing.T) {
	stdout, _, exitCode := runCLI(t, "--help")

	if exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	for _, want := range []string{"fieldmapper", "build", "apply", "validate"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected help to contain %q", want)
		}
	}
}

func TestCLI_Version(t *testing.T) {
	stdout, _, exitCode := runCLI(t, "version")

	if exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	if !strings.Contains(stdout, "Version:") {
		t.Errorf("expected version output, got: %s", stdout)
	}
}

func TestCLI_ValidateValidJob(t *testing.T) {
	jobPath := writeFixture(t, t.TempDir(), "job.yaml", testJobYAML)

	stdout, stderr, exitCode := runCLI(t, "validate", jobPath)

	if exitCode != cli.ExitOK {
		t.Fatalf("expected exit code %d, got %d\nstderr: %s", cli.ExitOK, exitCode, stderr)
	}
	if !strings.Contains(stdout, "valid") {
		t.Errorf("expected output to contain 'valid', got: %s", stdout)
	}
	if !strings.Contains(stdout, "yaml") {
		t.Errorf("expected output to mention 'yaml' format, got: %s", stdout)
	}
}

func TestCLI_ValidateInvalidSyntax(t *testing.T) {
	jobPath := writeFixture(t, t.TempDir(), "job.json", "{ broken")

	_, stderr, exitCode := runCLI(t, "validate", jobPath)

	if exitCode != cli.ExitParse {
		t.Errorf("expected exit code %d (parse error), got %d", cli.ExitParse, exitCode)
	}
	if !strings.Contains(stderr, "Parse errors") {
		t.Errorf("expected parse errors on stderr, got: %s", stderr)
	}
}

func TestCLI_ValidateSchemaViolation(t *testing.T) {
	jobPath := writeFixture(t, t.TempDir(), "job.json", `{"expected_fields": ["A"]}`)

	_, stderr, exitCode := runCLI(t, "validate", jobPath)

	if exitCode != cli.ExitValidation {
		t.Errorf("expected exit code %d (validation error), got %d", cli.ExitValidation, exitCode)
	}
	if !strings.Contains(stderr, "Validation errors") {
		t.Errorf("expected validation errors on stderr, got: %s", stderr)
	}
}

func TestCLI_ValidateStrictMismatch(t *testing.T) {
	// A rule targets a field outside the expected schema; strict
	// validation reports it.
	jobPath := writeFixture(t, t.TempDir(), "job.yaml", `expected_fields:
  - A
rules:
  - target: A
  - target: C
`)

	_, stderr, exitCode := runCLI(t, "validate", jobPath)

	if exitCode != cli.ExitValidation {
		t.Errorf("expected exit code %d, got %d\nstderr: %s", cli.ExitValidation, exitCode, stderr)
	}
}

func TestCLI_BuildToStdout(t *testing.T) {
	jobPath := writeFixture(t, t.TempDir(), "job.yaml", testJobYAML)

	stdout, stderr, exitCode := runCLI(t, "build", jobPath, "--quiet")

	if exitCode != cli.ExitOK {
		t.Fatalf("expected exit code %d, got %d\nstderr: %s", cli.ExitOK, exitCode, stderr)
	}
	for _, want := range []string{`"field_mappings"`, `"FullName"`, `"diagnostics"`} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected spec JSON to contain %s, got: %s", want, stdout)
		}
	}
}

func TestCLI_BuildToFile(t *testing.T) {
	dir := t.TempDir()
	jobPath := writeFixture(t, dir, "job.yaml", testJobYAML)
	specPath := filepath.Join(dir, "spec.json")

	stdout, stderr, exitCode := runCLI(t, "build", jobPath, "--out", specPath)

	if exitCode != cli.ExitOK {
		t.Fatalf("expected exit code %d, got %d\nstderr: %s", cli.ExitOK, exitCode, stderr)
	}
	if !strings.Contains(stdout, "Mapping spec built") {
		t.Errorf("expected build summary, got: %s", stdout)
	}

	data, err := os.ReadFile(specPath)
	if err != nil {
		t.Fatalf("failed to read exported spec: %v", err)
	}
	if !strings.Contains(string(data), `"expected_fields"`) {
		t.Error("expected exported spec to contain expected_fields")
	}
}

func TestCLI_BuildDegradedStillExports(t *testing.T) {
	dir := t.TempDir()
	jobPath := writeFixture(t, dir, "job.yaml", `source_fields:
  - a
expected_fields:
  - A
rules:
  - target: A
    source: a
    rule: TRIM(a
`)

	stdout, _, exitCode := runCLI(t, "build", jobPath, "--quiet")

	if exitCode != cli.ExitOK {
		t.Fatalf("expected degraded build to succeed, got exit %d", exitCode)
	}
	if !strings.Contains(stdout, `"TRIM(a"`) {
		t.Errorf("expected the unparsed rule in diagnostics, got: %s", stdout)
	}
}

func TestCLI_Apply(t *testing.T) {
	dir := t.TempDir()
	jobPath := writeFixture(t, dir, "job.yaml", testJobYAML)
	inputPath := writeFixture(t, dir, "input.csv", testInputCSV)
	outputPath := filepath.Join(dir, "output.csv")

	stdout, stderr, exitCode := runCLI(t, "apply", jobPath, inputPath, "--out", outputPath)

	if exitCode != cli.ExitOK {
		t.Fatalf("expected exit code %d, got %d\nstderr: %s", cli.ExitOK, exitCode, stderr)
	}
	if !strings.Contains(stdout, "Applied mappings to 2 records") {
		t.Errorf("expected apply summary, got: %s", stdout)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("failed to read output CSV: %v", err)
	}
	output := string(data)
	if !strings.HasPrefix(output, "FullName,BirthDate,Status\n") {
		t.Errorf("expected expected-field header, got: %s", output)
	}
	if !strings.Contains(output, "John Doe,2024-01-15,active") {
		t.Errorf("expected transformed first record, got: %s", output)
	}
}

func TestCLI_ApplyToStdout(t *testing.T) {
	dir := t.TempDir()
	jobPath := writeFixture(t, dir, "job.yaml", testJobYAML)
	inputPath := writeFixture(t, dir, "input.csv", testInputCSV)

	stdout, stderr, exitCode := runCLI(t, "apply", jobPath, inputPath, "--quiet")

	if exitCode != cli.ExitOK {
		t.Fatalf("expected exit code %d, got %d\nstderr: %s", cli.ExitOK, exitCode, stderr)
	}
	if !strings.Contains(stdout, "Jane Smith,1999-12-31,inactive") {
		t.Errorf("expected transformed records on stdout, got: %s", stdout)
	}
}

func TestCLI_ApplyMissingInput(t *testing.T) {
	jobPath := writeFixture(t, t.TempDir(), "job.yaml", testJobYAML)

	_, stderr, exitCode := runCLI(t, "apply", jobPath, "does-not-exist.csv", "--quiet")

	if exitCode != cli.ExitRuntime {
		t.Errorf("expected exit code %d (runtime error), got %d\nstderr: %s", cli.ExitRuntime, exitCode, stderr)
	}
}

// Package logger provides structured logging functionality.
// It wraps the standard log/slog package for consistent logging across the
// engine: spec building, rule parsing diagnostics, and record application
// all log through it with snake_case field names.
//
// The package supports two output formats:
//   - JSON (default): Machine-readable structured logging
//   - Human: Human-readable console output with colors and prefixes
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger is the default logger instance.
var Logger *slog.Logger

func init() {
	// Initialize with JSON handler for structured logging
	Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// SetLevel configures the logging level.
func SetLevel(level slog.Level) {
	SetLevelAndFormat(level, FormatJSON)
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// WithRun returns a logger with the run identifier attached. Every CLI
// invocation gets a fresh run_id so build and apply logs can be correlated.
func WithRun(runID string) *slog.Logger {
	return Logger.With(slog.String("run_id", runID))
}

// WithStage returns a logger with engine stage context (build, apply,
// validate) attached.
func WithStage(runID, stage string) *slog.Logger {
	return Logger.With(
		slog.String("run_id", runID),
		slog.String("stage", stage),
	)
}

// =============================================================================
// Output Format Support
// =============================================================================

// OutputFormat represents the log output format
type OutputFormat int

const (
	// FormatJSON is the default machine-readable JSON format
	FormatJSON OutputFormat = iota
	// FormatHuman is a human-readable console format with colors and prefixes
	FormatHuman
)

// SetFormat sets the log output format.
func SetFormat(format OutputFormat) {
	SetLevelAndFormat(slog.LevelInfo, format)
}

// SetLevelAndFormat sets both the log level and format.
func SetLevelAndFormat(level slog.Level, format OutputFormat) {
	switch format {
	case FormatHuman:
		Logger = slog.New(NewHumanHandler(os.Stdout, &HumanHandlerOptions{
			Level:     level,
			UseColors: isTerminal(os.Stdout),
		}))
	default:
		Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		}))
	}
}

// isTerminal returns true if the writer is a terminal (supports colors)
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		fi, err := f.Stat()
		if err != nil {
			return false
		}
		return (fi.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// HumanHandlerOptions configures the human-readable log handler.
type HumanHandlerOptions struct {
	// Level is the minimum log level to output
	Level slog.Level
	// UseColors enables ANSI color codes (auto-detected by default)
	UseColors bool
}

// HumanHandler is a slog handler that outputs human-readable log messages.
type HumanHandler struct {
	opts   HumanHandlerOptions
	writer io.Writer
	attrs  []slog.Attr
	groups []string
}

// NewHumanHandler creates a new human-readable log handler.
func NewHumanHandler(w io.Writer, opts *HumanHandlerOptions) *HumanHandler {
	if opts == nil {
		opts = &HumanHandlerOptions{Level: slog.LevelInfo}
	}
	return &HumanHandler{
		opts:   *opts,
		writer: w,
	}
}

// Enabled returns true if the handler is enabled for the given level.
func (h *HumanHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level
}

// Handle outputs a log record in human-readable format.
func (h *HumanHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	sb.WriteString(r.Time.Format("15:04:05"))
	sb.WriteString(" ")
	sb.WriteString(h.levelPrefix(r.Level, r.Message))
	sb.WriteString(" ")
	sb.WriteString(r.Message)

	var keyAttrs []string
	r.Attrs(func(a slog.Attr) bool {
		keyAttrs = append(keyAttrs, h.formatAttr(a))
		return true
	})
	for _, a := range h.attrs {
		keyAttrs = append(keyAttrs, h.formatAttr(a))
	}

	// Append important attributes inline (up to 5)
	if len(keyAttrs) > 0 {
		sb.WriteString(" ")
		maxInline := 5
		if len(keyAttrs) < maxInline {
			maxInline = len(keyAttrs)
		}
		sb.WriteString(strings.Join(keyAttrs[:maxInline], " "))
		if len(keyAttrs) > 5 {
			sb.WriteString(fmt.Sprintf(" (+%d more)", len(keyAttrs)-5))
		}
	}

	sb.WriteString("\n")
	_, err := h.writer.Write([]byte(sb.String()))
	return err
}

// WithAttrs returns a new handler with the given attributes added.
func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandler := &HumanHandler{
		opts:   h.opts,
		writer: h.writer,
		attrs:  make([]slog.Attr, len(h.attrs)+len(attrs)),
		groups: h.groups,
	}
	copy(newHandler.attrs, h.attrs)
	copy(newHandler.attrs[len(h.attrs):], attrs)
	return newHandler
}

// WithGroup returns a new handler with the given group name.
func (h *HumanHandler) WithGroup(name string) slog.Handler {
	return &HumanHandler{
		opts:   h.opts,
		writer: h.writer,
		attrs:  h.attrs,
		groups: append(h.groups, name),
	}
}

// levelPrefix returns a human-readable prefix for the log level, using a
// check mark for completion messages.
func (h *HumanHandler) levelPrefix(level slog.Level, message string) string {
	lower := strings.ToLower(message)
	isSuccess := strings.Contains(lower, "built") ||
		strings.Contains(lower, "completed") ||
		strings.Contains(lower, "succeeded")

	const (
		colorReset  = "\033[0m"
		colorRed    = "\033[31m"
		colorYellow = "\033[33m"
		colorGreen  = "\033[32m"
		colorCyan   = "\033[36m"
	)

	var prefix, color string
	switch {
	case level >= slog.LevelError:
		prefix = "✗"
		color = colorRed
	case level >= slog.LevelWarn:
		prefix = "⚠"
		color = colorYellow
	case level >= slog.LevelInfo:
		if isSuccess {
			prefix = "✓"
			color = colorGreen
		} else {
			prefix = "ℹ"
			color = colorCyan
		}
	default:
		prefix = "·"
		color = colorReset
	}

	if h.opts.UseColors {
		return color + prefix + colorReset
	}
	return prefix
}

// formatAttr formats a single attribute for display.
func (h *HumanHandler) formatAttr(a slog.Attr) string {
	key := a.Key
	value := a.Value.Any()

	if d, ok := value.(time.Duration); ok {
		return fmt.Sprintf("%s=%s", key, formatDuration(d))
	}
	if f, ok := value.(float64); ok {
		return fmt.Sprintf("%s=%.2f", key, f)
	}
	return fmt.Sprintf("%s=%v", key, value)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

// =============================================================================
// Log File Output Support
// =============================================================================

// logFile holds the currently open log file (if any)
var logFile *os.File

// SetLogFile configures logging to write to both stdout and the specified
// file. File logs are always JSON; the console keeps consoleFormat.
func SetLogFile(path string, level slog.Level, consoleFormat OutputFormat) error {
	CloseLogFile()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	logFile = f

	fileHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{
		Level: level,
	})

	var consoleHandler slog.Handler
	switch consoleFormat {
	case FormatHuman:
		consoleHandler = NewHumanHandler(os.Stdout, &HumanHandlerOptions{
			Level:     level,
			UseColors: isTerminal(os.Stdout),
		})
	default:
		consoleHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	Logger = slog.New(&dualHandler{
		console: consoleHandler,
		file:    fileHandler,
	})

	Info("log file opened", slog.String("path", path))
	return nil
}

// CloseLogFile closes the current log file if one is open.
func CloseLogFile() {
	if logFile != nil {
		if err := logFile.Sync(); err != nil {
			Warn("failed to sync log file", slog.String("error", err.Error()))
		}
		if err := logFile.Close(); err != nil {
			Warn("failed to close log file", slog.String("error", err.Error()))
		}
		logFile = nil
	}
}

// dualHandler is a slog.Handler that writes to both console and file handlers.
type dualHandler struct {
	console slog.Handler
	file    slog.Handler
}

func (d *dualHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return d.console.Enabled(ctx, level) || d.file.Enabled(ctx, level)
}

func (d *dualHandler) Handle(ctx context.Context, r slog.Record) error {
	if d.console.Enabled(ctx, r.Level) {
		if err := d.console.Handle(ctx, r); err != nil {
			return err
		}
	}
	if d.file.Enabled(ctx, r.Level) {
		if err := d.file.Handle(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (d *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dualHandler{
		console: d.console.WithAttrs(attrs),
		file:    d.file.WithAttrs(attrs),
	}
}

func (d *dualHandler) WithGroup(name string) slog.Handler {
	return &dualHandler{
		console: d.console.WithGroup(name),
		file:    d.file.WithGroup(name),
	}
}

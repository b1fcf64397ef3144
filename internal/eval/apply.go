package eval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/achui1980/agent-krystal/internal/logger"
	"github.com/achui1980/agent-krystal/pkg/mapping"
)

// Apply produces one output record from one input record. The output has
// exactly the spec's expected fields as keys, each seeded with the empty
// string and then overwritten per mapping entry. A failure applying one
// entry sets that one field to its configured default and adds a warning;
// it never aborts the rest of the record.
//
// The spec is read-only here, so Apply is safe to call concurrently with a
// shared Spec. Warnings are returned per call rather than accumulated on
// the spec.
func Apply(spec *mapping.Spec, rec mapping.Record) (mapping.Record, []string) {
	out := make(mapping.Record, len(spec.ExpectedFields))
	for _, f := range spec.ExpectedFields {
		out[f] = ""
	}

	var warnings []string
	for _, entry := range spec.FieldMappings {
		value, warn := applyEntry(entry, rec)
		if warn != "" {
			warnings = append(warnings, warn)
			logger.Warn("apply mapping degraded",
				slog.String("target", entry.Target),
				slog.String("type", string(entry.Type)),
				slog.String("warning", warn),
			)
		}
		out[entry.Target] = value
	}

	return out, warnings
}

// applyEntry dispatches one mapping entry to the evaluator. The returned
// warning is empty unless the entry could not be applied as typed.
func applyEntry(e mapping.MappingEntry, rec mapping.Record) (string, string) {
	src := func() string {
		if e.Source == "" {
			return ""
		}
		return rec.Get(e.Source)
	}

	switch e.Type {
	case mapping.TypeDirect:
		return src(), ""

	case mapping.TypeDefault:
		return Default(e.Default), ""

	case mapping.TypeConditional:
		return Conditional(e.Conditions, rec, e.Default), ""

	case mapping.TypeTransform:
		if e.Transform == nil {
			return src(), ""
		}
		return Node(*e.Transform, rec, e.Default), ""

	default:
		warn := fmt.Sprintf("unknown mapping type %q for target %s", e.Type, e.Target)
		if e.Source != "" {
			return src(), warn
		}
		return Default(e.Default), warn
	}
}

// ApplyBatch maps Apply over a batch of records, checking for cancellation
// between records. Warnings from all records are merged in order.
func ApplyBatch(ctx context.Context, spec *mapping.Spec, records []mapping.Record) ([]mapping.Record, []string, error) {
	out := make([]mapping.Record, 0, len(records))
	var warnings []string

	for i, rec := range records {
		select {
		case <-ctx.Done():
			logger.Warn("apply batch cancelled",
				slog.Int("records_done", i),
				slog.Int("records_total", len(records)),
			)
			return out, warnings, ctx.Err()
		default:
		}

		result, warns := Apply(spec, rec)
		out = append(out, result)
		warnings = append(warnings, warns...)
	}

	logger.Debug("apply batch completed",
		slog.Int("records", len(out)),
		slog.Int("warnings", len(warnings)),
	)
	return out, warnings, nil
}

package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for structured logging across buildergen.
const (
	// Engine
	FieldShape   = "shape"
	FieldBuilder = "builder"
	FieldOwner   = "owner"
	FieldField   = "field"
	FieldType    = "type"
	FieldMode    = "mode"
	FieldOutcome = "outcome"
	FieldDepth   = "depth"

	// Files and packages
	FieldPath    = "path"
	FieldPackage = "package"
	FieldPattern = "pattern"

	// Runs
	FieldRunID      = "run_id"
	FieldCount      = "count"
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"
)

type contextKey string

const runIDKey contextKey = "logger_run_id"

// WithRunID adds a run ID to the context for logging
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// FieldsFromContext extracts logging fields from context.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}
	if runID, ok := ctx.Value(runIDKey).(string); ok && runID != "" {
		fields = append(fields, FieldRunID, runID)
	}
	return fields
}

// FromContext returns base enriched with the context's logging fields.
func FromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

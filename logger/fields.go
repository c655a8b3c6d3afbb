package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across roomq.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldRequestID = "request_id"
	FieldComponent = "component"

	// Cascade
	FieldQuestion = "question"
	FieldIntent   = "intent"
	FieldRoom     = "room"
	FieldStage    = "stage"
	FieldStrategy = "strategy"
	FieldQuery    = "query"
	FieldOutcome  = "outcome"
	FieldReason   = "reason"

	// Timing
	FieldDurationMS = "duration_ms"
	FieldTimeout    = "timeout"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount = "count"
	FieldRooms = "rooms"
	FieldRows  = "rows"

	// Files and paths
	FieldDir  = "dir"
	FieldFile = "file"
)

type contextKey string

const (
	requestIDKey contextKey = "logger_request_id"
)

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}
	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields = append(fields, FieldRequestID, requestID)
	}
	return fields
}

// FromContext returns base enriched with the fields carried by ctx.
func FromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if base == nil {
		base = Logger
	}
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	store, err := timeseries.Open(dir, timeseries.WithLogger(logger.ComponentLogger("timeseries")))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return zap.NewNop().Sugar()
	}
	return l
}

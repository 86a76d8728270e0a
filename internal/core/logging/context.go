package logging

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	advisoryKey contextKey = "advisory_id"
)

// NewRunID returns a fresh identifier for one invocation.
func NewRunID() string {
	return uuid.NewString()
}

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithAdvisoryID adds the advisory being processed to the context.
func WithAdvisoryID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, advisoryKey, id)
}

// GetRunID retrieves the run ID from the context.
// Returns empty string if not present.
func GetRunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// GetAdvisoryID retrieves the advisory ID from the context.
// Returns empty string if not present.
func GetAdvisoryID(ctx context.Context) string {
	if id, ok := ctx.Value(advisoryKey).(string); ok {
		return id
	}
	return ""
}

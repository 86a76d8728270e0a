package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook copies run_id and advisory_id from the event context.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if runID := GetRunID(ctx); runID != "" {
		e.Str("run_id", runID)
	}

	if id := GetAdvisoryID(ctx); id != "" {
		e.Str("advisory_id", id)
	}
}

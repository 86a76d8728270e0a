// Package logging carries per-run identifiers into zerolog events.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component returns the global logger tagged with a "cmp" key. Events logged
// with .Ctx(ctx) also pick up the run and advisory ids.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger().Hook(ContextHook{})
}

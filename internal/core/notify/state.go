// Package notify decides which advisories need a notification and when the
// schedule exhaustion nag fires. Everything here is a pure function of its
// inputs; loading and saving State happens at the edges.
package notify

import (
	"slices"
	"time"
)

// State is the memory carried between runs.
type State struct {
	// SeenIDs are advisories already notified about, or deliberately skipped.
	SeenIDs []string
	// LastGateAlert is when the exhaustion nag last went out.
	LastGateAlert *time.Time
}

// Seen reports whether id has already been handled.
func (s State) Seen(id string) bool {
	return slices.Contains(s.SeenIDs, id)
}

// Equal reports whether two states would serialise identically.
func (s State) Equal(other State) bool {
	if !slices.Equal(s.SeenIDs, other.SeenIDs) {
		return false
	}
	switch {
	case s.LastGateAlert == nil && other.LastGateAlert == nil:
		return true
	case s.LastGateAlert == nil || other.LastGateAlert == nil:
		return false
	default:
		return s.LastGateAlert.Equal(*other.LastGateAlert)
	}
}

// WithGateAlert returns a copy of s with the nag timestamp set to at.
func (s State) WithGateAlert(at time.Time) State {
	s.SeenIDs = slices.Clone(s.SeenIDs)
	s.LastGateAlert = &at
	return s
}

// Package statefile persists notification state as a small JSON document.
package statefile

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/colonyops/oncall/internal/core/notify"
	"github.com/colonyops/oncall/pkg/utils"
)

// File is the root JSON structure stored on disk. Unknown keys are ignored
// and missing keys decode as empty, so older and newer files both load.
type File struct {
	SeenAdvisories []string `json:"seen_advisories"`
	// Unix seconds, fractional.
	LastAlertAboutRotation *float64 `json:"last_alert_about_rotation"`
}

// Store loads and saves notify.State at a fixed path.
type Store struct {
	path string
}

// New creates a store for the state file at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the file this store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Load reads the state file. A missing or empty file is an empty state.
func (s *Store) Load(_ context.Context) (notify.State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return notify.State{}, nil
		}
		return notify.State{}, fmt.Errorf("read state file: %w", err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return notify.State{}, nil
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return notify.State{}, fmt.Errorf("parse state file %s: %w", s.path, err)
	}

	return file.State(), nil
}

// Save replaces the state file atomically.
func (s *Store) Save(_ context.Context, state notify.State) error {
	data, err := json.MarshalIndent(FromState(state), "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	data = append(data, '\n')

	if err := utils.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// DryRun returns a store for the non-authoritative sibling of this store's
// path, used so dry runs never touch real state.
func (s *Store) DryRun() *Store {
	return New(DryRunPath(s.path))
}

// DryRunPath swaps the extension of path for ".dry-run".
func DryRunPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".dry-run"
}

// State converts the on-disk form to the domain type.
func (f File) State() notify.State {
	state := notify.State{SeenIDs: f.SeenAdvisories}
	if f.LastAlertAboutRotation != nil {
		at := time.UnixMicro(int64(math.Round(*f.LastAlertAboutRotation * 1e6))).UTC()
		state.LastGateAlert = &at
	}
	return state
}

// FromState converts a domain state to its on-disk form.
func FromState(state notify.State) File {
	file := File{SeenAdvisories: state.SeenIDs}
	if file.SeenAdvisories == nil {
		file.SeenAdvisories = []string{}
	}
	if state.LastGateAlert != nil {
		secs := float64(state.LastGateAlert.UnixMicro()) / 1e6
		file.LastAlertAboutRotation = &secs
	}
	return file
}

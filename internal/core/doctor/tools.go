package doctor

import (
	"context"
	"os/exec"

	"github.com/colonyops/oncall/internal/core/config"
)

// lookPathFunc is the function used to find executables on PATH.
// Package-level variable to allow test overrides.
var lookPathFunc = exec.LookPath

// ToolsCheck verifies that external tools the configured backend needs are
// available on $PATH.
type ToolsCheck struct {
	backend string
	ghPath  string
}

// NewToolsCheck creates a new tools check.
func NewToolsCheck(cfg config.GitHubConfig) *ToolsCheck {
	return &ToolsCheck{backend: cfg.Backend, ghPath: cfg.GhPath}
}

func (c *ToolsCheck) Name() string {
	return "Tools"
}

func (c *ToolsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	path, err := lookPathFunc(c.ghPath)
	switch {
	case err == nil:
		result.add("gh", StatusPass, path)
	case c.backend == config.BackendGh:
		result.add("gh", StatusFail, "not found on PATH (required by the gh backend)")
	default:
		result.add("gh", StatusPass, "not installed (not needed by the rest backend)")
	}

	return result
}

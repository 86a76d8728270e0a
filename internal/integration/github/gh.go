package github

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/colonyops/oncall/internal/core/advisory"
	"github.com/colonyops/oncall/pkg/executil"
)

// GhClient lists advisories with `gh api`, reusing the credentials the gh CLI
// already holds.
type GhClient struct {
	repo   string
	ghPath string
	exec   executil.Executor
	log    zerolog.Logger
}

// NewGhClient creates a gh-backed fetcher. ghPath defaults to "gh".
func NewGhClient(repo, ghPath string, exec executil.Executor, log zerolog.Logger) *GhClient {
	if ghPath == "" {
		ghPath = "gh"
	}
	return &GhClient{repo: repo, ghPath: ghPath, exec: exec, log: log}
}

// FetchOpen lists every draft and triage advisory. --paginate follows Link
// headers and --slurp joins the pages into one JSON array of pages.
func (g *GhClient) FetchOpen(ctx context.Context) ([]advisory.Item, error) {
	var items []advisory.Item
	for _, state := range OpenStates {
		endpoint := fmt.Sprintf("repos/%s/security-advisories?state=%s&per_page=%d", g.repo, state, perPage)
		out, err := g.exec.Run(ctx, g.ghPath, "api",
			"-H", "Accept: application/vnd.github+json",
			"-H", "X-GitHub-Api-Version: "+apiVersion,
			"--paginate", "--slurp",
			endpoint,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: gh api %s: %v", ErrFetch, endpoint, err)
		}

		var pages [][]advisoryJSON
		if err := json.Unmarshal(out, &pages); err != nil {
			return nil, fmt.Errorf("%w: decode gh output: %v", ErrFetch, err)
		}
		for _, page := range pages {
			for _, a := range page {
				items = append(items, a.item())
			}
		}
	}

	g.log.Info().Int("count", len(items)).Msg("fetched open advisories")
	return items, nil
}

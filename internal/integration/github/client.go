// Package github lists open repository security advisories, either through
// the REST API or through the gh CLI.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/oncall/internal/core/advisory"
)

// ErrFetch is returned when the advisory listing could not be completed.
var ErrFetch = errors.New("fetch advisories")

// OpenStates are the advisory states that count as unresolved.
var OpenStates = []string{"draft", "triage"}

const (
	apiVersion = "2022-11-28"
	perPage    = 100
	// maxErrorBody caps how much of a failed response is logged.
	maxErrorBody = 1024
)

type advisoryJSON struct {
	GhsaID             string `json:"ghsa_id"`
	Summary            string `json:"summary"`
	State              string `json:"state"`
	CollaboratingUsers []struct {
		Login string `json:"login"`
	} `json:"collaborating_users"`
}

func (a advisoryJSON) item() advisory.Item {
	people := make([]string, 0, len(a.CollaboratingUsers))
	for _, u := range a.CollaboratingUsers {
		people = append(people, u.Login)
	}
	return advisory.Item{ID: a.GhsaID, Title: a.Summary, People: people}
}

// Client fetches advisories from the GitHub REST API.
type Client struct {
	repo    string
	token   string
	baseURL string
	http    *http.Client
	retries int
	backoff time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithHTTPClientTimeout sets the per-request timeout of the default client.
func WithHTTPClientTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithRetries sets how often a failed page is retried. Attempt i waits i*backoff
// before going again.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		c.retries = n
		c.backoff = backoff
	}
}

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a REST client for repo ("owner/name").
func NewClient(repo, token string, opts ...Option) *Client {
	c := &Client{
		repo:    repo,
		token:   token,
		baseURL: "https://api.github.com",
		http:    &http.Client{Timeout: 30 * time.Second},
		retries: 3,
		backoff: time.Minute,
		sleep:   sleepCtx,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchOpen lists every draft and triage advisory, following pagination.
func (c *Client) FetchOpen(ctx context.Context) ([]advisory.Item, error) {
	var items []advisory.Item
	for _, state := range OpenStates {
		page, err := c.fetchState(ctx, state)
		if err != nil {
			return nil, err
		}
		items = append(items, page...)
	}

	c.log.Info().Int("count", len(items)).Msg("fetched open advisories")
	return items, nil
}

func (c *Client) fetchState(ctx context.Context, state string) ([]advisory.Item, error) {
	q := url.Values{}
	q.Set("state", state)
	q.Set("per_page", fmt.Sprint(perPage))
	next := fmt.Sprintf("%s/repos/%s/security-advisories?%s", c.baseURL, c.repo, q.Encode())

	var items []advisory.Item
	for next != "" {
		body, link, err := c.getWithRetry(ctx, next)
		if err != nil {
			return nil, err
		}

		var page []advisoryJSON
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", ErrFetch, next, err)
		}
		for _, a := range page {
			if a.State != "" && a.State != state {
				c.log.Warn().Str("id", a.GhsaID).Str("state", a.State).Str("want", state).Msg("unexpected advisory state")
			}
			items = append(items, a.item())
		}

		next = NextPage(link, c.log)
	}
	return items, nil
}

func (c *Client) getWithRetry(ctx context.Context, u string) ([]byte, string, error) {
	for attempt := 0; ; attempt++ {
		body, link, err := c.get(ctx, u)
		if err == nil {
			return body, link, nil
		}
		if ctx.Err() != nil || attempt >= c.retries {
			return nil, "", fmt.Errorf("%w: %v", ErrFetch, err)
		}

		wait := time.Duration(attempt+1) * c.backoff
		c.log.Warn().Err(err).Str("url", u).Dur("wait", wait).Msg("advisory request failed; retrying")
		if err := c.sleep(ctx, wait); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrFetch, err)
		}
	}
}

func (c *Client) get(ctx context.Context, u string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", "oncall")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("GET %s: %w", u, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Debug().Err(err).Msg("close advisory response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, "", fmt.Errorf("GET %s: status %d: %s", u, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", u, err)
	}
	return body, resp.Header.Get("Link"), nil
}

// NextPage extracts the rel="next" target from a Link header. Malformed
// entries are logged and skipped.
func NextPage(header string, log zerolog.Logger) string {
	if header == "" {
		return ""
	}
	for _, link := range strings.Split(header, ",") {
		target, params, ok := strings.Cut(link, ";")
		if !ok {
			log.Warn().Str("link", link).Msg("malformed Link header entry")
			continue
		}
		if strings.Contains(params, `rel="next"`) {
			return strings.Trim(target, "<> ")
		}
	}
	return ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/oncall/internal/core/advisory"
)

const page1 = `[
  {"ghsa_id": "GHSA-2", "summary": "second", "state": "draft", "collaborating_users": [{"login": "dave"}]},
  {"ghsa_id": "GHSA-1", "summary": "first", "state": "draft"}
]`

const page2 = `[{"ghsa_id": "GHSA-3", "summary": "third", "state": "draft", "collaborating_users": []}]`

type recordedSleeps struct {
	waits []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) (*Client, *recordedSleeps) {
	t.Helper()
	opts = append([]Option{WithBaseURL(srv.URL), WithHTTPClient(srv.Client())}, opts...)
	c := NewClient("llvm/llvm-project", "ghp_test", opts...)
	sleeps := &recordedSleeps{}
	c.sleep = sleeps.sleep
	return c, sleeps
}

func TestClient_FetchOpen(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/llvm/llvm-project/security-advisories", r.URL.Path)
		assert.Equal(t, "Bearer ghp_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, apiVersion, r.Header.Get("X-GitHub-Api-Version"))

		switch r.URL.Query().Get("state") {
		case "draft":
			if r.URL.Query().Get("page") == "2" {
				_, _ = fmt.Fprint(w, page2)
				return
			}
			next := srv.URL + r.URL.Path + "?state=draft&page=2"
			w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next", <%s>; rel="last"`, next, next))
			_, _ = fmt.Fprint(w, page1)
		case "triage":
			_, _ = fmt.Fprint(w, `[{"ghsa_id": "GHSA-9", "summary": "triaged", "state": "triage"}]`)
		default:
			t.Errorf("unexpected state %q", r.URL.Query().Get("state"))
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c, sleeps := newTestClient(t, srv)
	items, err := c.FetchOpen(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sleeps.waits)

	assert.Equal(t, []advisory.Item{
		{ID: "GHSA-2", Title: "second", People: []string{"dave"}},
		{ID: "GHSA-1", Title: "first", People: []string{}},
		{ID: "GHSA-3", Title: "third", People: []string{}},
		{ID: "GHSA-9", Title: "triaged", People: []string{}},
	}, items)
}

func TestClient_RetriesWithLinearBackoff(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") == "draft" && calls.Add(1) <= 2 {
			http.Error(w, "try later", http.StatusBadGateway)
			return
		}
		_, _ = fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	c, sleeps := newTestClient(t, srv, WithRetries(3, time.Second))
	items, err := c.FetchOpen(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps.waits)
}

func TestClient_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, sleeps := newTestClient(t, srv, WithRetries(3, time.Minute))
	_, err := c.FetchOpen(context.Background())
	require.ErrorIs(t, err, ErrFetch)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "Bad credentials")

	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, []time.Duration{time.Minute, 2 * time.Minute, 3 * time.Minute}, sleeps.waits)
}

func TestClient_FailedLaterPageFailsWholeFetch(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s%s?state=draft&page=2>; rel="next"`, srv.URL, r.URL.Path))
		_, _ = fmt.Fprint(w, page1)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv, WithRetries(0, 0))
	items, err := c.FetchOpen(context.Background())
	require.ErrorIs(t, err, ErrFetch)
	assert.Nil(t, items)
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"not": "a list"}`)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv)
	_, err := c.FetchOpen(context.Background())
	require.ErrorIs(t, err, ErrFetch)
	assert.Contains(t, err.Error(), "decode")
}

func TestClient_CanceledContextStopsRetrying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c, _ := newTestClient(t, srv, WithRetries(3, time.Hour))
	c.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepCtx(ctx, d)
	}

	_, err := c.FetchOpen(ctx)
	require.ErrorIs(t, err, ErrFetch)
}

func TestNextPage(t *testing.T) {
	log := zerolog.Nop()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "empty", header: "", want: ""},
		{
			name:   "next and last",
			header: `<https://api.github.com/x?page=2>; rel="next", <https://api.github.com/x?page=5>; rel="last"`,
			want:   "https://api.github.com/x?page=2",
		},
		{
			name:   "only prev",
			header: `<https://api.github.com/x?page=1>; rel="prev"`,
			want:   "",
		},
		{
			name:   "malformed entry skipped",
			header: `garbage, <https://api.github.com/x?page=3>; rel="next"`,
			want:   "https://api.github.com/x?page=3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextPage(tt.header, log))
		})
	}
}

package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devspacehq/pulse"
)

const commitsResponse = `[
  {
    "sha": "e10",
    "html_url": "https://github.test/devspace/probe/commit/e10",
    "commit": {
      "message": "Add telemetry\n\nDetails.",
      "author": {"name": "Sam Doe", "date": "2026-08-01T10:00:00Z"}
    },
    "author": {"login": "samdoe"}
  },
  {
    "sha": "e9",
    "html_url": "https://github.test/devspace/probe/commit/e9",
    "commit": {
      "message": "Initial import",
      "author": {"name": "Sam Doe", "date": "2026-07-30T10:00:00Z"}
    },
    "author": null
  }
]`

func TestFetchCommits(t *testing.T) {
	var gotPath, gotAuth, gotPerPage string
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotAuth = r.Header.Get("Authorization")
				gotPerPage = r.URL.Query().Get("per_page")
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(commitsResponse))
			},
		),
	)
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	commits, err := c.FetchCommits(context.Background(), "tok", "devspace/probe", 10)
	require.NoError(t, err)

	assert.Equal(t, "/repos/devspace/probe/commits", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "10", gotPerPage)

	require.Len(t, commits, 2)
	assert.Equal(
		t, pulse.Commit{
			ID:          "e10",
			Message:     "Add telemetry\n\nDetails.",
			Author:      "Sam Doe",
			AuthorLogin: "samdoe",
			URL:         "https://github.test/devspace/probe/commit/e10",
		}, commits[0],
	)
	// Missing author object must not break the mapping.
	assert.Empty(t, commits[1].AuthorLogin)
}

func TestFetchCommitsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		),
	)
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.FetchCommits(context.Background(), "tok", "devspace/probe", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pulse.ErrUpstreamUnavailable))
}

func TestFetchCommitsEmptyRepository(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusConflict)
			},
		),
	)
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	commits, err := c.FetchCommits(context.Background(), "tok", "devspace/probe", 10)
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestFetchCommitsNetworkError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := c.FetchCommits(context.Background(), "tok", "devspace/probe", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pulse.ErrUpstreamUnavailable))
}

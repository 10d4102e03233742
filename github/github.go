// Package github implements the upstream commit fetcher against the GitHub
// REST API.
package github

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/devspacehq/pulse"
)

// DefaultBaseURL is the public GitHub API.
const DefaultBaseURL = "https://api.github.com"

// DefaultTimeout bounds a single commits request.
const DefaultTimeout = 10 * time.Second

// Client fetches recent commits of a repository. It implements
// pulse.CommitFetcher.
type Client struct {
	http *resty.Client
}

// NewClient creates a Client against the passed API base url; an empty
// baseURL selects the public GitHub API.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("X-GitHub-Api-Version", "2022-11-28")
	return &Client{http: httpClient}
}

type commitItem struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Message string `json:"message"`
		Author  struct {
			Name string `json:"name"`
			Date string `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Author *struct {
		Login string `json:"login"`
	} `json:"author"`
}

// FetchCommits returns up to limit most recent commits of the repository,
// newest first, as GitHub orders them. All transport and upstream errors are
// classified as pulse.ErrUpstreamUnavailable so the caller can skip the
// subject without failing the run.
func (c *Client) FetchCommits(
	ctx context.Context, token, repoFullName string, limit int,
) ([]pulse.Commit, error) {
	var items []commitItem
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("per_page", strconv.Itoa(limit)).
		SetResult(&items).
		Get(fmt.Sprintf("/repos/%s/commits", repoFullName))
	if err != nil {
		return nil, errors.Wrapf(
			pulse.ErrUpstreamUnavailable, "fetching commits for %s: %s", repoFullName, err,
		)
	}
	if resp.StatusCode() == http.StatusConflict {
		// GitHub answers 409 for repositories without any commits.
		return nil, nil
	}
	if resp.IsError() {
		return nil, errors.Wrapf(
			pulse.ErrUpstreamUnavailable, "fetching commits for %s: upstream returned %s",
			repoFullName, resp.Status(),
		)
	}
	commits := make([]pulse.Commit, 0, len(items))
	for _, item := range items {
		commit := pulse.Commit{
			ID:      item.SHA,
			Message: item.Commit.Message,
			Author:  item.Commit.Author.Name,
			URL:     item.HTMLURL,
		}
		if item.Author != nil {
			commit.AuthorLogin = item.Author.Login
		}
		commits = append(commits, commit)
	}
	return commits, nil
}

package pulse

import (
	"context"

	"github.com/pkg/errors"
)

// Errors classifying why a subject was skipped during a run. They are
// matched with errors.Is at the subject-processing boundary; none of them
// ever fails the whole run.
var (
	// ErrNoCredential signals that the subject's owner has no usable
	// upstream access token. The subject is skipped, not retried this run.
	ErrNoCredential = errors.New("no upstream credential for owner")
	// ErrUpstreamUnavailable signals a network or upstream-service error,
	// including rate limiting. The subject is skipped, not retried this run.
	ErrUpstreamUnavailable = errors.New("upstream source unavailable")
	// ErrMalformedSubject signals a subject without an upstream reference;
	// it is treated as not-configured and skipped silently.
	ErrMalformedSubject = errors.New("subject has no upstream reference")
	// ErrRunInProgress is returned when a run is triggered while another
	// one still holds the single-flight lock.
	ErrRunInProgress = errors.New("a watcher run is already in progress")
)

// Commit is the short-lived view of an upstream commit used to build a
// notification. Only its ID outlives a run, as the subject's checkpoint.
type Commit struct {
	// ID is the upstream-unique commit id (the sha).
	ID string `json:"id"`
	// Message is the full commit message.
	Message string `json:"message"`
	// Author is the commit author's display name.
	Author string `json:"author"`
	// AuthorLogin is the author's upstream account login, if resolvable.
	AuthorLogin string `json:"author_login"`
	// URL is the canonical link to the commit.
	URL string `json:"url"`
}

// CommitFetcher pulls a bounded window of the most recent commits of a
// repository, newest first. Implementations classify failures as
// ErrUpstreamUnavailable; an invalid repository reference is the caller's
// problem. No caching: every run re-fetches.
type CommitFetcher interface {
	FetchCommits(ctx context.Context, token, repoFullName string, limit int) ([]Commit, error)
}

// CredentialProvider yields an upstream access token for an owner.
// ok == false is a "cannot process this subject" signal, not an error.
type CredentialProvider interface {
	Token(ownerID string) (token string, ok bool, err error)
}

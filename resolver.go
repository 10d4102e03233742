package pulse

import (
	"tideland.dev/go/slices"
)

// Defaults for the run pipeline's bounds.
const (
	// DefaultFetchLimit is the size of the commit window fetched per subject.
	DefaultFetchLimit = 10
	// DefaultBacklogLimit caps how many commits are treated as new when the
	// checkpoint has scrolled out of the fetched window.
	DefaultBacklogLimit = 5
)

// Resolution is the outcome of diffing a fetched commit window against a
// subject's checkpoint.
type Resolution struct {
	// NewCommits are the commits to notify about, oldest first so
	// notifications are created in chronological order.
	NewCommits []Commit
	// LatestID is the id the checkpoint advances to: always the newest
	// fetched commit, regardless of how many commits were derived as new.
	// Empty when the fetched window was empty; the checkpoint is then left
	// untouched.
	LatestID string
}

// ResolveNewCommits diffs fetched (newest first) against the last-seen
// commit id and returns the deduplicated set of new commits.
//
//   - lastSeenID nil or empty (first run): only the single newest commit is
//     new, so enabling a watch on an old repository does not flood the owner.
//   - lastSeenID found at position i: everything above it is new.
//   - lastSeenID not found (scrolled out of the window): the backlogLimit
//     most recent commits are new. This bounds the notification storm after
//     a long gap; likely-missed commits beyond the bound stay silent.
func ResolveNewCommits(fetched []Commit, lastSeenID *string, backlogLimit int) Resolution {
	if len(fetched) == 0 {
		return Resolution{}
	}
	if backlogLimit <= 0 {
		backlogLimit = DefaultBacklogLimit
	}
	res := Resolution{LatestID: fetched[0].ID}
	if lastSeenID == nil || *lastSeenID == "" {
		res.NewCommits = []Commit{fetched[0]}
		return res
	}
	seenAt := -1
	for i, c := range fetched {
		if c.ID == *lastSeenID {
			seenAt = i
			break
		}
	}
	fresh := fetched
	if seenAt >= 0 {
		fresh = fetched[:seenAt]
	} else if len(fresh) > backlogLimit {
		fresh = fresh[:backlogLimit]
	}
	if len(fresh) == 0 {
		return res
	}
	res.NewCommits = slices.Reverse(fresh)
	return res
}

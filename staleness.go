package pulse

import (
	"time"

	"github.com/devspacehq/pulse/storage/model"
)

// DefaultStalenessThreshold is the inactivity window after which a subject
// counts as stale.
const DefaultStalenessThreshold = 7 * 24 * time.Hour

// StalenessVerdict classifies a subject's journal activity.
type StalenessVerdict struct {
	// Stale is true when the most recent journal entry is older than the
	// threshold, or when no entry exists at all.
	Stale bool `json:"stale"`
	// LastLoggedAt is the unix-millisecond timestamp of the most recent
	// entry; nil when the subject has never logged anything.
	LastLoggedAt *int64 `json:"last_logged_at"`
}

// StalenessEvaluator inspects the most recent journal entry of a subject.
// It has no side effects; callers decide whether a stale verdict leads to a
// notification.
type StalenessEvaluator struct {
	Journal   model.JournalStore
	Threshold time.Duration
	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Evaluate returns the staleness verdict for a subject.
func (e *StalenessEvaluator) Evaluate(subjectID uint) (StalenessVerdict, error) {
	threshold := e.Threshold
	if threshold <= 0 {
		threshold = DefaultStalenessThreshold
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	entry, err := e.Journal.Latest(subjectID)
	if err != nil {
		return StalenessVerdict{}, err
	}
	if entry == nil {
		// Never logged anything: always stale.
		return StalenessVerdict{Stale: true}, nil
	}
	loggedAt := entry.LoggedAt
	stale := now().UnixMilli()-loggedAt > threshold.Milliseconds()
	return StalenessVerdict{Stale: stale, LastLoggedAt: &loggedAt}, nil
}

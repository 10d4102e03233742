package pulse

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devspacehq/pulse/storage/model"
)

// DefaultSubjectTimeout bounds how long a single subject may occupy a run;
// a hung upstream call must not stall the aggregate run indefinitely.
const DefaultSubjectTimeout = 30 * time.Second

// RunResult is the aggregate outcome of one watcher run.
type RunResult struct {
	// Processed counts subjects whose event pipeline completed, including
	// its checkpoint write. Skipped subjects are not counted.
	Processed int `json:"processed"`
	// Notified counts the notifications created across all subjects.
	Notified int `json:"notified"`
	// StartedAt / FinishedAt are unix-millisecond timestamps.
	StartedAt  int64 `json:"started_at"`
	FinishedAt int64 `json:"finished_at"`
}

// Orchestrator drives one watcher pass over all enabled subjects. Subjects
// are processed sequentially and independently: any per-subject failure is
// absorbed, logged, and never reduces what other subjects achieve.
// Overlapping runs are rejected via a single-flight lock rather than
// interleaved.
type Orchestrator struct {
	Subjects    model.SubjectsStore
	Checkpoints model.CheckpointStore
	Credentials CredentialProvider
	Fetcher     CommitFetcher
	Dispatcher  *Dispatcher
	Staleness   *StalenessEvaluator
	// KV receives the last run's summary; may be nil.
	KV model.KeyValueStore

	FetchLimit     int
	BacklogLimit   int
	SubjectTimeout time.Duration
	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time

	mu sync.Mutex
}

// RunOnce executes a single watcher pass. It returns ErrRunInProgress when
// another pass still holds the lock, and an error only when the subject list
// itself cannot be loaded; per-subject failures are absorbed.
func (o *Orchestrator) RunOnce(ctx context.Context) (RunResult, error) {
	if !o.mu.TryLock() {
		return RunResult{}, ErrRunInProgress
	}
	defer o.mu.Unlock()

	res := RunResult{StartedAt: o.now().UnixMilli()}
	subjects, err := o.Subjects.Enabled()
	if err != nil {
		return res, errors.Wrap(err, "failed to load watched subjects")
	}
	timeout := o.SubjectTimeout
	if timeout <= 0 {
		timeout = DefaultSubjectTimeout
	}
	for _, subject := range subjects {
		subCtx, cancel := context.WithTimeout(ctx, timeout)
		entry := log.WithField("subject_id", subject.ID).WithField("repo", subject.RepoFullName)

		notified, err := o.processSubject(subCtx, subject)
		res.Notified += notified
		switch {
		case err == nil:
			res.Processed++
		case errors.Is(err, ErrNoCredential):
			entry.Info("skipping subject, owner has no upstream credential")
		case errors.Is(err, ErrMalformedSubject):
			entry.Debug("skipping subject, no upstream reference configured")
		case errors.Is(err, ErrUpstreamUnavailable):
			entry.WithError(err).Warn("skipping subject, upstream unavailable")
		default:
			entry.WithError(err).Error("subject processing failed")
		}

		// Staleness check runs independently of the event pipeline's fate.
		notified, err = o.checkStaleness(subCtx, subject)
		res.Notified += notified
		if err != nil {
			entry.WithError(err).Error("staleness check failed")
		}
		cancel()
	}
	res.FinishedAt = o.now().UnixMilli()
	if o.KV != nil {
		if err = o.KV.SetAny(model.KeyValueScopeWatcher, model.KeyValueKeyLastRun, res); err != nil {
			log.WithError(err).Warn("failed to store run summary")
		}
	}
	log.WithField("processed", res.Processed).WithField("notified", res.Notified).Info("watcher run finished")
	return res, nil
}

// StartPeriodic launches a background loop triggering a run every interval.
func (o *Orchestrator) StartPeriodic(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := o.RunOnce(context.Background()); err != nil {
				if errors.Is(err, ErrRunInProgress) {
					log.Info("skipping scheduled run, previous run still active")
					continue
				}
				log.WithError(err).Error("scheduled watcher run failed")
			}
		}
	}()
}

// processSubject runs fetch → resolve → dispatch → checkpoint for one
// subject and returns how many notifications were created. The checkpoint is
// written once, after the dispatch loop; if that write fails after
// notifications went out, the next run may re-notify. At-least-once delivery
// is the accepted trade-off.
func (o *Orchestrator) processSubject(ctx context.Context, subject model.Subject) (int, error) {
	if subject.RepoFullName == "" {
		return 0, ErrMalformedSubject
	}
	token, ok, err := o.Credentials.Token(subject.OwnerID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to look up owner credential")
	}
	if !ok {
		return 0, ErrNoCredential
	}
	limit := o.FetchLimit
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	fetched, err := o.Fetcher.FetchCommits(ctx, token, subject.RepoFullName, limit)
	if err != nil {
		return 0, err
	}
	var lastSeen *string
	cp, err := o.Checkpoints.Get(subject.ID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read checkpoint")
	}
	if cp != nil {
		lastSeen = cp.LastSeenID
	}
	resolution := ResolveNewCommits(fetched, lastSeen, o.BacklogLimit)

	notified := 0
	for _, commit := range resolution.NewCommits {
		if err = o.Dispatcher.DispatchCommitNotification(ctx, subject, commit); err != nil {
			log.WithError(err).
				WithField("subject_id", subject.ID).
				WithField("commit", commit.ID).
				Error("failed to dispatch commit notification")
			continue
		}
		notified++
	}
	if resolution.LatestID == "" {
		// Empty fetch window: nothing new, checkpoint stays untouched.
		return notified, nil
	}
	nowMs := o.now().UnixMilli()
	enabled := true
	err = o.Checkpoints.Upsert(
		subject.ID, model.CheckpointUpdate{
			LastSeenID:    &resolution.LatestID,
			LastCheckedAt: &nowMs,
			Enabled:       &enabled,
		},
	)
	if err != nil {
		return notified, errors.Wrap(err, "failed to write checkpoint")
	}
	return notified, nil
}

// checkStaleness evaluates the subject's journal and dispatches at most one
// reminder per staleness window, so immediate re-runs stay quiet.
func (o *Orchestrator) checkStaleness(ctx context.Context, subject model.Subject) (int, error) {
	verdict, err := o.Staleness.Evaluate(subject.ID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to evaluate staleness")
	}
	if !verdict.Stale {
		return 0, nil
	}
	threshold := o.Staleness.Threshold
	if threshold <= 0 {
		threshold = DefaultStalenessThreshold
	}
	cp, err := o.Checkpoints.Get(subject.ID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read checkpoint")
	}
	nowMs := o.now().UnixMilli()
	if cp != nil && cp.StaleNotifiedAt != 0 && nowMs-cp.StaleNotifiedAt <= threshold.Milliseconds() {
		return 0, nil
	}
	if err = o.Dispatcher.DispatchStalenessNotification(ctx, subject); err != nil {
		return 0, err
	}
	err = o.Checkpoints.Upsert(subject.ID, model.CheckpointUpdate{StaleNotifiedAt: &nowMs})
	if err != nil {
		// The reminder went out; a failed marker write only risks an early
		// repeat next run.
		log.WithError(err).WithField("subject_id", subject.ID).Warn("failed to record staleness reminder")
	}
	return 1, nil
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

package pulse

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devspacehq/pulse/storage/model"
)

type fakeSubjects struct {
	model.SubjectsStore
	enabled []model.Subject
	err     error
}

func (f *fakeSubjects) Enabled() ([]model.Subject, error) {
	return f.enabled, f.err
}

type fakeCheckpoints struct {
	model.CheckpointStore
	checkpoints map[uint]*model.Checkpoint
	upsertErr   error
}

func newFakeCheckpoints() *fakeCheckpoints {
	return &fakeCheckpoints{checkpoints: map[uint]*model.Checkpoint{}}
}

func (f *fakeCheckpoints) Get(subjectID uint) (*model.Checkpoint, error) {
	cp, ok := f.checkpoints[subjectID]
	if !ok {
		return nil, nil
	}
	copied := *cp
	return &copied, nil
}

func (f *fakeCheckpoints) Upsert(subjectID uint, upd model.CheckpointUpdate) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	cp, ok := f.checkpoints[subjectID]
	if !ok {
		cp = &model.Checkpoint{SubjectID: subjectID}
		f.checkpoints[subjectID] = cp
	}
	if upd.LastSeenID != nil {
		v := *upd.LastSeenID
		cp.LastSeenID = &v
	}
	if upd.LastCheckedAt != nil {
		cp.LastCheckedAt = *upd.LastCheckedAt
	}
	if upd.StaleNotifiedAt != nil {
		cp.StaleNotifiedAt = *upd.StaleNotifiedAt
	}
	if upd.Enabled != nil {
		cp.Enabled = *upd.Enabled
	}
	return nil
}

type fakeFetcher struct {
	commits map[string][]Commit
	errs    map[string]error
	calls   int
}

func (f *fakeFetcher) FetchCommits(_ context.Context, _, repoFullName string, _ int) ([]Commit, error) {
	f.calls++
	if err := f.errs[repoFullName]; err != nil {
		return nil, err
	}
	return f.commits[repoFullName], nil
}

func subjectWithID(id uint, owner, repo string) model.Subject {
	s := model.Subject{
		OwnerID:      owner,
		Kind:         model.SubjectKindProject,
		DisplayName:  repo,
		RepoFullName: repo,
		WatchEnabled: true,
	}
	s.ID = id
	return s
}

func freshJournal(now time.Time, subjectIDs ...uint) *fakeJournal {
	latest := map[uint]*model.JournalEntry{}
	for _, id := range subjectIDs {
		latest[id] = &model.JournalEntry{SubjectID: id, LoggedAt: now.UnixMilli()}
	}
	return &fakeJournal{latest: latest}
}

func newTestOrchestrator(
	now time.Time,
	subjects *fakeSubjects,
	checkpoints *fakeCheckpoints,
	fetcher *fakeFetcher,
	journal *fakeJournal,
	notifications *fakeNotifications,
	owners *fakeOwners,
) *Orchestrator {
	return &Orchestrator{
		Subjects:    subjects,
		Checkpoints: checkpoints,
		Credentials: owners,
		Fetcher:     fetcher,
		Dispatcher: &Dispatcher{
			Notifications: notifications,
			Owners:        owners,
		},
		Staleness: &StalenessEvaluator{
			Journal: journal,
			Now:     func() time.Time { return now },
		},
		Now: func() time.Time { return now },
	}
}

func TestRunOnceFirstRun(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	subjects := &fakeSubjects{enabled: []model.Subject{subjectWithID(1, "owner-1", "dev/one")}}
	checkpoints := newFakeCheckpoints()
	fetcher := &fakeFetcher{commits: map[string][]Commit{"dev/one": commitWindow("e10", "e9", "e8")}}
	notifications := &fakeNotifications{}
	owners := &fakeOwners{
		owners: map[string]*model.Owner{"owner-1": {ID: "owner-1"}},
		tokens: map[string]string{"owner-1": "tok"},
	}

	o := newTestOrchestrator(now, subjects, checkpoints, fetcher, freshJournal(now, 1), notifications, owners)
	res, err := o.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Notified)
	require.Len(t, notifications.created, 1)
	assert.Equal(t, "e10", *checkpoints.checkpoints[1].LastSeenID)
	assert.Equal(t, now.UnixMilli(), checkpoints.checkpoints[1].LastCheckedAt)
}

func TestRunOnceIsIdempotent(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	subjects := &fakeSubjects{enabled: []model.Subject{subjectWithID(1, "owner-1", "dev/one")}}
	checkpoints := newFakeCheckpoints()
	fetcher := &fakeFetcher{commits: map[string][]Commit{"dev/one": commitWindow("e10", "e9", "e8")}}
	notifications := &fakeNotifications{}
	owners := &fakeOwners{
		owners: map[string]*model.Owner{"owner-1": {ID: "owner-1"}},
		tokens: map[string]string{"owner-1": "tok"},
	}

	o := newTestOrchestrator(now, subjects, checkpoints, fetcher, freshJournal(now, 1), notifications, owners)
	_, err := o.RunOnce(context.Background())
	require.NoError(t, err)
	created := len(notifications.created)

	// Upstream unchanged: a second run must stay quiet.
	res, err := o.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Notified)
	assert.Len(t, notifications.created, created)
}

func TestRunOncePartialFailureIsolation(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	subjects := &fakeSubjects{
		enabled: []model.Subject{
			subjectWithID(1, "owner-1", "dev/one"),
			subjectWithID(2, "owner-1", "dev/two"),
			subjectWithID(3, "owner-1", "dev/three"),
		},
	}
	checkpoints := newFakeCheckpoints()
	fetcher := &fakeFetcher{
		commits: map[string][]Commit{
			"dev/one":   commitWindow("a1"),
			"dev/three": commitWindow("c1"),
		},
		errs: map[string]error{
			"dev/two": errors.Wrap(ErrUpstreamUnavailable, "rate limited"),
		},
	}
	notifications := &fakeNotifications{}
	owners := &fakeOwners{
		owners: map[string]*model.Owner{"owner-1": {ID: "owner-1"}},
		tokens: map[string]string{"owner-1": "tok"},
	}

	o := newTestOrchestrator(now, subjects, checkpoints, fetcher, freshJournal(now, 1, 2, 3), notifications, owners)
	res, err := o.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 2, res.Notified)
	assert.Contains(t, checkpoints.checkpoints, uint(1))
	assert.Contains(t, checkpoints.checkpoints, uint(3))
	// The failed subject's checkpoint is untouched.
	assert.NotContains(t, checkpoints.checkpoints, uint(2))
}

func TestRunOnceSkipsSubjectsWithoutCredential(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	subjects := &fakeSubjects{enabled: []model.Subject{subjectWithID(1, "owner-1", "dev/one")}}
	checkpoints := newFakeCheckpoints()
	fetcher := &fakeFetcher{}
	notifications := &fakeNotifications{}
	owners := &fakeOwners{owners: map[string]*model.Owner{"owner-1": {ID: "owner-1"}}}

	o := newTestOrchestrator(now, subjects, checkpoints, fetcher, freshJournal(now, 1), notifications, owners)
	res, err := o.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 0, fetcher.calls)
	assert.Empty(t, notifications.created)
}

func TestRunOnceSkipsMalformedSubjects(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	subjects := &fakeSubjects{enabled: []model.Subject{subjectWithID(1, "owner-1", "")}}
	checkpoints := newFakeCheckpoints()
	fetcher := &fakeFetcher{}
	notifications := &fakeNotifications{}
	owners := &fakeOwners{
		owners: map[string]*model.Owner{"owner-1": {ID: "owner-1"}},
		tokens: map[string]string{"owner-1": "tok"},
	}

	o := newTestOrchestrator(now, subjects, checkpoints, fetcher, freshJournal(now, 1), notifications, owners)
	res, err := o.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 0, fetcher.calls)
}

func TestRunOnceEmptyFetchLeavesCheckpointUntouched(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	subjects := &fakeSubjects{enabled: []model.Subject{subjectWithID(1, "owner-1", "dev/one")}}
	checkpoints := newFakeCheckpoints()
	lastSeen := "e5"
	enabled := true
	checkpoints.checkpoints[1] = &model.Checkpoint{SubjectID: 1, LastSeenID: &lastSeen, Enabled: enabled}
	fetcher := &fakeFetcher{commits: map[string][]Commit{"dev/one": nil}}
	notifications := &fakeNotifications{}
	owners := &fakeOwners{
		owners: map[string]*model.Owner{"owner-1": {ID: "owner-1"}},
		tokens: map[string]string{"owner-1": "tok"},
	}

	o := newTestOrchestrator(now, subjects, checkpoints, fetcher, freshJournal(now, 1), notifications, owners)
	res, err := o.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 0, res.Notified)
	assert.Equal(t, "e5", *checkpoints.checkpoints[1].LastSeenID)
	assert.Zero(t, checkpoints.checkpoints[1].LastCheckedAt)
}

func TestRunOnceStalenessReminder(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	subjects := &fakeSubjects{enabled: []model.Subject{subjectWithID(1, "owner-1", "dev/one")}}
	checkpoints := newFakeCheckpoints()
	fetcher := &fakeFetcher{commits: map[string][]Commit{"dev/one": nil}}
	notifications := &fakeNotifications{}
	owners := &fakeOwners{
		owners: map[string]*model.Owner{"owner-1": {ID: "owner-1"}},
		tokens: map[string]string{"owner-1": "tok"},
	}
	// No journal entries at all: always stale.
	journal := &fakeJournal{latest: map[uint]*model.JournalEntry{}}

	o := newTestOrchestrator(now, subjects, checkpoints, fetcher, journal, notifications, owners)
	res, err := o.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Notified)
	require.Len(t, notifications.created, 1)
	assert.Equal(t, model.NotificationTypeStaleProject, notifications.created[0].Type)
	assert.Equal(t, now.UnixMilli(), checkpoints.checkpoints[1].StaleNotifiedAt)

	// A re-run within the staleness window must not repeat the reminder.
	res, err = o.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Notified)
	assert.Len(t, notifications.created, 1)

	// Once the window has passed, the reminder fires again.
	o.Now = func() time.Time { return now.Add(DefaultStalenessThreshold + time.Millisecond) }
	o.Staleness.Now = o.Now
	res, err = o.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Notified)
	assert.Len(t, notifications.created, 2)
}

func TestRunOnceFailsWhenSubjectsUnavailable(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	subjects := &fakeSubjects{err: errors.New("db down")}
	o := newTestOrchestrator(
		now, subjects, newFakeCheckpoints(), &fakeFetcher{},
		&fakeJournal{}, &fakeNotifications{}, &fakeOwners{},
	)
	_, err := o.RunOnce(context.Background())
	require.Error(t, err)
}

package pulse

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devspacehq/pulse/storage/model"
)

func newTestService(t *testing.T, secret string) (*Pulse, *fakeNotifications, *fakeFetcher) {
	t.Helper()
	now := time.UnixMilli(1_700_000_000_000)
	subjects := &fakeSubjects{enabled: []model.Subject{subjectWithID(1, "owner-1", "dev/one")}}
	fetcher := &fakeFetcher{commits: map[string][]Commit{"dev/one": commitWindow("e10")}}
	notifications := &fakeNotifications{}
	owners := &fakeOwners{
		owners: map[string]*model.Owner{"owner-1": {ID: "owner-1"}},
		tokens: map[string]string{"owner-1": "tok"},
	}
	o := newTestOrchestrator(
		now, subjects, newFakeCheckpoints(), fetcher, freshJournal(now, 1), notifications, owners,
	)

	p := NewPulse(ServerConf{})
	p.AddRunEndpoint(EndpointConf{Path: "/run"}, secret, o)
	return p, notifications, fetcher
}

func TestRunEndpointRejectsMissingCredential(t *testing.T) {
	p, notifications, fetcher := newTestService(t, "topsecret")

	req := httptest.NewRequest("POST", "/run", nil)
	resp, err := p.Server().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
	// Rejection must happen before any subject is touched.
	assert.Zero(t, fetcher.calls)
	assert.Empty(t, notifications.created)
}

func TestRunEndpointRejectsWrongCredential(t *testing.T) {
	p, notifications, fetcher := newTestService(t, "topsecret")

	req := httptest.NewRequest("POST", "/run", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err := p.Server().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Zero(t, fetcher.calls)
	assert.Empty(t, notifications.created)
}

func TestRunEndpointLockedWithoutSecret(t *testing.T) {
	p, _, fetcher := newTestService(t, "")

	req := httptest.NewRequest("POST", "/run", nil)
	req.Header.Set("Authorization", "Bearer ")
	resp, err := p.Server().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Zero(t, fetcher.calls)
}

func TestRunEndpointTriggersRun(t *testing.T) {
	p, notifications, _ := newTestService(t, "topsecret")

	req := httptest.NewRequest("POST", "/run", nil)
	req.Header.Set("Authorization", "Bearer topsecret")
	resp, err := p.Server().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var res RunResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Notified)
	assert.Len(t, notifications.created, 1)
}

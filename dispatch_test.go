package pulse

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devspacehq/pulse/storage/model"
)

type fakeNotifications struct {
	model.NotificationsStore
	created []model.Notification
	err     error
}

func (f *fakeNotifications) Create(n *model.Notification) error {
	if f.err != nil {
		return f.err
	}
	n.ID = uint(len(f.created) + 1)
	f.created = append(f.created, *n)
	return nil
}

type fakeOwners struct {
	model.OwnersStore
	owners map[string]*model.Owner
	tokens map[string]string
}

func (f *fakeOwners) Get(ownerID string) (*model.Owner, error) {
	owner, ok := f.owners[ownerID]
	if !ok {
		return nil, model.NotFoundErrorFmt("owner '%s' not found", ownerID)
	}
	return owner, nil
}

func (f *fakeOwners) Token(ownerID string) (string, bool, error) {
	token, ok := f.tokens[ownerID]
	return token, ok, nil
}

type fakeMailer struct {
	sent []EmailRequest
	err  error
}

func (f *fakeMailer) Send(_ context.Context, req EmailRequest) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, req)
	return nil
}

func testSubject() model.Subject {
	s := model.Subject{
		OwnerID:      "owner-1",
		Kind:         model.SubjectKindProject,
		DisplayName:  "space-probe",
		RepoFullName: "devspace/space-probe",
		WatchEnabled: true,
	}
	s.ID = 1
	return s
}

func TestDispatchCommitNotification(t *testing.T) {
	notifications := &fakeNotifications{}
	mailer := &fakeMailer{}
	d := Dispatcher{
		Notifications: notifications,
		Owners: &fakeOwners{
			owners: map[string]*model.Owner{"owner-1": {ID: "owner-1", Email: "owner@example.org"}},
		},
		Mailer: mailer,
	}

	commit := Commit{
		ID:          "abc123",
		Message:     "Fix the flux capacitor\n\nLonger explanation below.",
		Author:      "Sam Doe",
		AuthorLogin: "samdoe",
		URL:         "https://example.org/commit/abc123",
	}
	require.NoError(t, d.DispatchCommitNotification(context.Background(), testSubject(), commit))

	require.Len(t, notifications.created, 1)
	n := notifications.created[0]
	assert.Equal(t, "owner-1", n.RecipientID)
	assert.Equal(t, model.NotificationTypeNewCommit, n.Type)
	assert.Equal(t, "New commit in space-probe", n.Title)
	assert.Equal(t, "Fix the flux capacitor", n.Description)
	require.NotNil(t, n.ActorID)
	assert.Equal(t, "samdoe", *n.ActorID)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "owner@example.org", mailer.sent[0].To)
	assert.Equal(t, EmailTemplateCommit, mailer.sent[0].Template)
	assert.Equal(t, "Fix the flux capacitor", mailer.sent[0].Fields["summary"])
}

func TestDispatchCommitNotificationEmailFailureTolerated(t *testing.T) {
	notifications := &fakeNotifications{}
	d := Dispatcher{
		Notifications: notifications,
		Owners: &fakeOwners{
			owners: map[string]*model.Owner{"owner-1": {ID: "owner-1", Email: "owner@example.org"}},
		},
		Mailer: &fakeMailer{err: errors.New("smtp down")},
	}

	err := d.DispatchCommitNotification(context.Background(), testSubject(), Commit{ID: "abc", Message: "hi"})
	require.NoError(t, err)
	assert.Len(t, notifications.created, 1)
}

func TestDispatchCommitNotificationWithoutMailer(t *testing.T) {
	notifications := &fakeNotifications{}
	d := Dispatcher{Notifications: notifications, Owners: &fakeOwners{}}

	err := d.DispatchCommitNotification(context.Background(), testSubject(), Commit{ID: "abc", Message: "hi"})
	require.NoError(t, err)
	assert.Len(t, notifications.created, 1)
}

func TestDispatchCommitNotificationOwnerWithoutAddress(t *testing.T) {
	mailer := &fakeMailer{}
	d := Dispatcher{
		Notifications: &fakeNotifications{},
		Owners:        &fakeOwners{owners: map[string]*model.Owner{"owner-1": {ID: "owner-1"}}},
		Mailer:        mailer,
	}

	err := d.DispatchCommitNotification(context.Background(), testSubject(), Commit{ID: "abc", Message: "hi"})
	require.NoError(t, err)
	assert.Empty(t, mailer.sent)
}

func TestDispatchTemplateExtrasDoNotOverride(t *testing.T) {
	mailer := &fakeMailer{}
	d := Dispatcher{
		Notifications: &fakeNotifications{},
		Owners: &fakeOwners{
			owners: map[string]*model.Owner{"owner-1": {ID: "owner-1", Email: "owner@example.org"}},
		},
		Mailer: mailer,
		TemplateExtras: map[string]any{
			"subject_name": "spoofed",
			"footer":       "sent by pulse",
		},
	}

	require.NoError(t, d.DispatchStalenessNotification(context.Background(), testSubject()))
	require.Len(t, mailer.sent, 1)
	fields := mailer.sent[0].Fields
	assert.Equal(t, "space-probe", fields["subject_name"])
	assert.Equal(t, "sent by pulse", fields["footer"])
}

func TestTruncateSummary(t *testing.T) {
	assert.Equal(t, "hello", TruncateSummary("hello", 100))
	assert.Equal(t, "first line", TruncateSummary("first line\nsecond line", 100))
	assert.Equal(t, "crlf line", TruncateSummary("crlf line\r\nnext", 100))

	long := strings.Repeat("a", 150)
	assert.Len(t, TruncateSummary(long, 100), 100)

	// Truncation counts characters, not bytes.
	unicode := strings.Repeat("ä", 150)
	assert.Equal(t, strings.Repeat("ä", 100), TruncateSummary(unicode, 100))

	assert.Equal(t, "", TruncateSummary("", 100))
}

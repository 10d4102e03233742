package pulse

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devspacehq/pulse/internal/utils"
	"github.com/devspacehq/pulse/storage/model"
)

// Email template identifiers understood by the mail transport.
const (
	EmailTemplateCommit = "commit"
	EmailTemplateStale  = "stale"
)

// descriptionLimit caps the commit summary stored in a notification.
const descriptionLimit = 100

// EmailRequest is the ephemeral value object handed to the mail transport.
// It is never persisted; delivery is fire-and-forget.
type EmailRequest struct {
	To       string
	Template string
	Fields   map[string]any
}

// EmailSender is the out-of-band email transport. Implementations must
// apply their own delivery timeouts.
type EmailSender interface {
	Send(ctx context.Context, req EmailRequest) error
}

// Dispatcher materializes in-app notifications and attempts a best-effort
// email alongside each one. The in-app write is the required channel: an
// email failure is logged and never rolls back or skips the notification,
// nor does it abort processing of sibling commits or subjects.
type Dispatcher struct {
	Notifications model.NotificationsStore
	Owners        model.OwnersStore
	// Mailer may be nil; then only in-app notifications are created.
	Mailer EmailSender
	// TemplateExtras are additional template fields from the configuration;
	// they never overwrite the fields the dispatcher sets itself.
	TemplateExtras map[string]any
}

// DispatchCommitNotification creates the in-app notification for a new
// upstream commit and triggers the email send.
func (d *Dispatcher) DispatchCommitNotification(
	ctx context.Context, subject model.Subject, commit Commit,
) error {
	actor := commit.AuthorLogin
	if actor == "" {
		actor = commit.Author
	}
	n := model.Notification{
		RecipientID: subject.OwnerID,
		Type:        model.NotificationTypeNewCommit,
		Title:       fmt.Sprintf("New commit in %s", subject.DisplayName),
		Description: TruncateSummary(commit.Message, descriptionLimit),
		SubjectID:   subject.ID,
		SubjectKind: subject.Kind,
	}
	if actor != "" {
		n.ActorID = &actor
	}
	if err := d.Notifications.Create(&n); err != nil {
		return errors.Wrap(err, "failed to write notification")
	}
	d.sendEmail(
		ctx, subject, EmailTemplateCommit, map[string]any{
			"subject_name":  subject.DisplayName,
			"commit_id":     commit.ID,
			"commit_author": actor,
			"commit_url":    commit.URL,
			"summary":       n.Description,
		},
	)
	return nil
}

// DispatchStalenessNotification creates the in-app reminder for a subject
// whose journal has gone quiet and triggers the email send.
func (d *Dispatcher) DispatchStalenessNotification(
	ctx context.Context, subject model.Subject,
) error {
	n := model.Notification{
		RecipientID: subject.OwnerID,
		Type:        model.NotificationTypeStaleProject,
		Title:       "Time to post an update",
		Description: fmt.Sprintf(
			"%s has had no journal activity for a while. Post an update to keep your followers in the loop.",
			subject.DisplayName,
		),
		SubjectID:   subject.ID,
		SubjectKind: subject.Kind,
	}
	if err := d.Notifications.Create(&n); err != nil {
		return errors.Wrap(err, "failed to write notification")
	}
	d.sendEmail(
		ctx, subject, EmailTemplateStale, map[string]any{
			"subject_name": subject.DisplayName,
		},
	)
	return nil
}

// sendEmail is the best-effort secondary channel. Every failure path only
// logs: a missing owner record, a missing address, and transport errors all
// leave the already-committed in-app notification untouched.
func (d *Dispatcher) sendEmail(
	ctx context.Context, subject model.Subject, template string, fields map[string]any,
) {
	if d.Mailer == nil {
		return
	}
	entry := log.WithField("subject_id", subject.ID).WithField("template", template)
	owner, err := d.Owners.Get(subject.OwnerID)
	if err != nil {
		entry.WithError(err).Info("skipping email, owner lookup failed")
		return
	}
	if owner.Email == "" {
		entry.Info("skipping email, owner has no address")
		return
	}
	req := EmailRequest{
		To:       owner.Email,
		Template: template,
		Fields:   utils.MergeMaps(false, fields, d.TemplateExtras),
	}
	if err = d.Mailer.Send(ctx, req); err != nil {
		entry.WithError(err).Warn("email delivery failed")
	}
}

// TruncateSummary reduces a commit message to its first line, truncated to
// at most limit characters.
func TruncateSummary(message string, limit int) string {
	line := message
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimRight(line, "\r")
	runes := []rune(line)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return line
}

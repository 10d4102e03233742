package model

import (
	"fmt"

	"gorm.io/gorm"
)

// NotificationType enumerates the notifications this service emits.
type NotificationType int

// Constants for NotificationType
const (
	NotificationTypeNewCommit NotificationType = iota
	NotificationTypeStaleProject
)

// String returns the canonical string representation for the type.
func (t NotificationType) String() string {
	switch t {
	case NotificationTypeNewCommit:
		return "new_commit"
	case NotificationTypeStaleProject:
		return "stale_project"
	default:
		return "unknown"
	}
}

// Valid reports whether the type is one of the defined constants.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeNewCommit, NotificationTypeStaleProject:
		return true
	default:
		return false
	}
}

// MarshalJSON encodes the type as a JSON string.
func (t NotificationType) MarshalJSON() ([]byte, error) {
	return []byte("\"" + t.String() + "\""), nil
}

// UnmarshalJSON decodes the type from a JSON string.
func (t *NotificationType) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("notification type must be a JSON string")
	}
	pt, err := ParseNotificationType(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*t = pt
	return nil
}

// ParseNotificationType converts a string to a NotificationType,
// returning an error for invalid values.
func ParseNotificationType(v string) (NotificationType, error) {
	switch v {
	case "new_commit":
		return NotificationTypeNewCommit, nil
	case "stale_project":
		return NotificationTypeStaleProject, nil
	}
	return 0, fmt.Errorf("invalid notification type: %s", v)
}

// NotificationTypeNames lists the string forms of all valid types.
func NotificationTypeNames() []string {
	return []string{
		NotificationTypeNewCommit.String(),
		NotificationTypeStaleProject.String(),
	}
}

// Notification is an in-app notification record. It is created by the
// dispatcher and afterwards only mutated by its recipient (the read flag)
// through the API. Deduplication is not enforced here; the resolver
// guarantees an upstream event is only ever derived as "new" once.
type Notification struct {
	gorm.Model
	// RecipientID is the Dev Space user id the notification is for.
	RecipientID string `gorm:"index" json:"recipient_id"`
	// Type of the notification.
	Type NotificationType `gorm:"index" json:"type"`
	// Title is a short headline.
	Title string `json:"title"`
	// Description carries the truncated detail text.
	Description string `json:"description"`
	// SubjectID references the watched subject this notification is about.
	SubjectID uint `gorm:"index" json:"subject_id"`
	// SubjectKind mirrors the subject's kind for UI routing.
	SubjectKind SubjectKind `json:"subject_kind"`
	// ActorID optionally names the user who caused the notification
	// (e.g. the commit author's upstream login).
	ActorID *string `json:"actor_id"`
	// Read is set by the recipient via the API.
	Read bool `gorm:"index" json:"read"`
}

// NotificationsStore abstracts the notification sink consumed by the
// dispatcher and exposed read-only to UI consumers.
type NotificationsStore interface {
	Create(n *Notification) error
	ForRecipient(recipientID string, types []NotificationType, limit int) ([]Notification, error)
	UnreadCount(recipientID string) (int64, error)
	MarkRead(id uint, recipientID string) error
	MarkAllRead(recipientID string) error
}

package storage

import (
	"gorm.io/gorm"

	"github.com/devspacehq/pulse/storage/model"
)

// NotificationsStorage implements model.NotificationsStore using GORM.
type NotificationsStorage struct {
	db *gorm.DB
}

// Create stores a notification record
func (s *NotificationsStorage) Create(n *model.Notification) error {
	return s.db.Create(n).Error
}

// ForRecipient returns the recipient's notifications, newest first.
// An empty types slice means all types; limit <= 0 means no limit.
func (s *NotificationsStorage) ForRecipient(
	recipientID string, types []model.NotificationType, limit int,
) ([]model.Notification, error) {
	q := s.db.Where("recipient_id = ?", recipientID)
	if len(types) > 0 {
		q = q.Where("type IN ?", types)
	}
	q = q.Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var notifications []model.Notification
	if err := q.Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications for a recipient
func (s *NotificationsStorage) UnreadCount(recipientID string) (int64, error) {
	var count int64
	err := s.db.Model(&model.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead sets the read flag of a single notification. The recipient id is
// required so recipients can only mutate their own records.
func (s *NotificationsStorage) MarkRead(id uint, recipientID string) error {
	res := s.db.Model(&model.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("notification not found: %d", id)
	}
	return nil
}

// MarkAllRead sets the read flag of all the recipient's notifications
func (s *NotificationsStorage) MarkAllRead(recipientID string) error {
	return s.db.Model(&model.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Update("read", true).Error
}

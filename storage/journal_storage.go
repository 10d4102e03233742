package storage

import (
	"errors"

	"gorm.io/gorm"

	"github.com/devspacehq/pulse/storage/model"
)

// JournalStorage implements model.JournalStore using GORM.
type JournalStorage struct {
	db *gorm.DB
}

// Append stores a journal entry
func (s *JournalStorage) Append(e *model.JournalEntry) error {
	return s.db.Create(e).Error
}

// Latest returns the most recent journal entry of a subject,
// or (nil, nil) when the subject has no entries.
func (s *JournalStorage) Latest(subjectID uint) (*model.JournalEntry, error) {
	var entry model.JournalEntry
	err := s.db.Where("subject_id = ?", subjectID).
		Order("logged_at DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// ForSubject returns the subject's entries, newest first.
func (s *JournalStorage) ForSubject(subjectID uint, limit int) ([]model.JournalEntry, error) {
	q := s.db.Where("subject_id = ?", subjectID).Order("logged_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var entries []model.JournalEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

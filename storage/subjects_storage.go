package storage

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/devspacehq/pulse/storage/model"
)

// SubjectsStorage implements model.SubjectsStore using GORM.
type SubjectsStorage struct {
	db *gorm.DB
}

// Write upserts a subject keyed by its repository reference.
func (s *SubjectsStorage) Write(subject *model.Subject) error {
	return s.db.Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "repo_full_name"}},
			UpdateAll: true,
		},
	).Create(subject).Error
}

// Get returns a subject by id
func (s *SubjectsStorage) Get(id uint) (*model.Subject, error) {
	var subject model.Subject
	if err := s.db.First(&subject, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("subject not found: %d", id)
		}
		return nil, err
	}
	return &subject, nil
}

// ByRepo returns the subject linked to the passed repository reference
func (s *SubjectsStorage) ByRepo(fullName string) (*model.Subject, error) {
	var subject model.Subject
	if err := s.db.Where("repo_full_name = ?", fullName).First(&subject).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("subject not found: %s", fullName)
		}
		return nil, err
	}
	return &subject, nil
}

// Enabled returns all subjects whose watch flag is set
func (s *SubjectsStorage) Enabled() ([]model.Subject, error) {
	var subjects []model.Subject
	if err := s.db.Where("watch_enabled = ?", true).Order("id").Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

// List returns all subjects
func (s *SubjectsStorage) List() ([]model.Subject, error) {
	var subjects []model.Subject
	if err := s.db.Order("id").Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

// SetWatch enables or disables the watch for a subject. Subjects are never
// hard-deleted; disabling is the terminal state.
func (s *SubjectsStorage) SetWatch(id uint, enabled bool) error {
	res := s.db.Model(&model.Subject{}).Where("id = ?", id).Update("watch_enabled", enabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("subject not found: %d", id)
	}
	return nil
}

package storage

import (
	"errors"

	"gorm.io/gorm"

	"github.com/devspacehq/pulse/storage/model"
)

// CheckpointsStorage implements model.CheckpointStore on the relational
// database. Upsert is a read-modify-write inside a transaction; within a run
// each subject's checkpoint has a single writer, so this is safe without
// cross-subject locking.
type CheckpointsStorage struct {
	db *gorm.DB
}

// Get returns the checkpoint for a subject, or (nil, nil) when none exists.
func (s *CheckpointsStorage) Get(subjectID uint) (*model.Checkpoint, error) {
	var cp model.Checkpoint
	if err := s.db.Where("subject_id = ?", subjectID).First(&cp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cp, nil
}

// Upsert merges the update into the stored checkpoint, creating it if absent.
// nil fields of the update leave the stored value untouched.
func (s *CheckpointsStorage) Upsert(subjectID uint, upd model.CheckpointUpdate) error {
	return s.db.Transaction(
		func(tx *gorm.DB) error {
			var cp model.Checkpoint
			err := tx.Where("subject_id = ?", subjectID).First(&cp).Error
			if err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				cp = model.Checkpoint{SubjectID: subjectID}
			}
			applyCheckpointUpdate(&cp, upd)
			return tx.Save(&cp).Error
		},
	)
}

// Delete removes the checkpoint of a subject. No error if it's missing.
func (s *CheckpointsStorage) Delete(subjectID uint) error {
	return s.db.Where("subject_id = ?", subjectID).Delete(&model.Checkpoint{}).Error
}

func applyCheckpointUpdate(cp *model.Checkpoint, upd model.CheckpointUpdate) {
	if upd.LastSeenID != nil {
		cp.LastSeenID = upd.LastSeenID
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
}

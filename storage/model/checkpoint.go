package model

import (
	"gorm.io/gorm"
)

// Checkpoint is the persisted cursor for a watched subject. It records the
// id of the newest upstream event that has already been processed, so a run
// can tell which fetched events are new. There is at most one checkpoint per
// subject; it is created lazily on the subject's first processed run.
type Checkpoint struct {
	CreatedAt int            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int            `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// SubjectID ties the checkpoint 1:1 to its Subject.
	SubjectID uint `gorm:"primaryKey" json:"subject_id"`
	// LastSeenID is the newest upstream event id already processed.
	// nil means no run has completed for this subject yet.
	LastSeenID *string `json:"last_seen_id"`
	// LastCheckedAt is the unix-millisecond timestamp of the last pass.
	LastCheckedAt int64 `json:"last_checked_at"`
	// StaleNotifiedAt records when the last staleness reminder went out,
	// in unix milliseconds; 0 means never. It keeps consecutive runs from
	// re-notifying about the same quiet period.
	StaleNotifiedAt int64 `json:"stale_notified_at"`
	// Enabled mirrors the subject's watch flag at checkpoint level.
	Enabled bool `json:"enabled"`
}

// CheckpointUpdate carries the fields of an upsert. nil fields are left
// untouched in the stored checkpoint.
type CheckpointUpdate struct {
	LastSeenID      *string
	LastCheckedAt   *int64
	StaleNotifiedAt *int64
	Enabled         *bool
}

// CheckpointStore abstracts keyed read/upsert of per-subject checkpoints.
// Get returns (nil, nil) when no checkpoint exists for the subject.
// Upsert merges the update into the stored checkpoint, creating it if absent.
type CheckpointStore interface {
	Get(subjectID uint) (*Checkpoint, error)
	Upsert(subjectID uint, upd CheckpointUpdate) error
	Delete(subjectID uint) error
}

package model

import (
	"gorm.io/gorm"
)

// JournalEntry is a user-authored progress record tied to a subject.
// The watcher only ever reads the most recent entry per subject to decide
// staleness; the rest of the journal belongs to the Dev Space UI.
type JournalEntry struct {
	gorm.Model
	SubjectID uint   `gorm:"index" json:"subject_id"`
	AuthorID  string `gorm:"index" json:"author_id"`
	Body      string `json:"body"`
	Public    bool   `json:"public"`
	// LoggedAt is the entry's timestamp in unix milliseconds.
	LoggedAt int64 `gorm:"index" json:"logged_at"`
}

// JournalStore abstracts journal persistence. Latest returns (nil, nil)
// when the subject has no entries at all.
type JournalStore interface {
	Append(e *JournalEntry) error
	Latest(subjectID uint) (*JournalEntry, error)
	ForSubject(subjectID uint, limit int) ([]JournalEntry, error)
}

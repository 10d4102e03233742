package model

import (
	"fmt"

	"gorm.io/gorm"
)

// SubjectKind describes what kind of entity is being watched.
type SubjectKind int

// Constants for SubjectKind
const (
	SubjectKindProject SubjectKind = iota
	SubjectKindUser
)

// String returns the canonical string representation for the kind.
func (k SubjectKind) String() string {
	switch k {
	case SubjectKindProject:
		return "project"
	case SubjectKindUser:
		return "user"
	default:
		return "unknown"
	}
}

// Valid reports whether the kind is one of the defined constants.
func (k SubjectKind) Valid() bool {
	switch k {
	case SubjectKindProject, SubjectKindUser:
		return true
	default:
		return false
	}
}

// MarshalJSON encodes the kind as a JSON string.
func (k SubjectKind) MarshalJSON() ([]byte, error) {
	return []byte("\"" + k.String() + "\""), nil
}

// UnmarshalJSON decodes the kind from a JSON string.
func (k *SubjectKind) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("subject kind must be a JSON string")
	}
	pk, err := ParseSubjectKind(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*k = pk
	return nil
}

// ParseSubjectKind converts a string to a SubjectKind, returning an error for invalid values.
func ParseSubjectKind(v string) (SubjectKind, error) {
	switch v {
	case "project":
		return SubjectKindProject, nil
	case "user":
		return SubjectKindUser, nil
	}
	return 0, fmt.Errorf("invalid subject kind: %s", v)
}

// Subject is an entity under watch: a Dev Space project linked to an
// upstream repository (or a user). Subjects are never hard-deleted;
// disabling the watch keeps the row and its checkpoint around.
type Subject struct {
	gorm.Model
	// OwnerID is the Dev Space user id of the subject's owner.
	OwnerID string `gorm:"index" json:"owner_id"`
	// Kind distinguishes project subjects from user subjects.
	Kind SubjectKind `gorm:"index" json:"kind"`
	// DisplayName is used in notification texts.
	DisplayName string `json:"display_name"`
	// RepoFullName is the upstream repository reference ("owner/name").
	RepoFullName string `gorm:"uniqueIndex" json:"repo_full_name"`
	// WatchEnabled gates whether the watcher processes this subject.
	WatchEnabled bool `gorm:"index" json:"watch_enabled"`
}

// SubjectsStore is an interface to store and query Subjects
type SubjectsStore interface {
	Write(subject *Subject) error
	Get(id uint) (*Subject, error)
	ByRepo(fullName string) (*Subject, error)
	Enabled() ([]Subject, error)
	List() ([]Subject, error)
	SetWatch(id uint, enabled bool) error
}

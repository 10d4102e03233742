package model

import (
	"gorm.io/gorm"
)

// Owner holds the per-user data the watcher needs about a subject's owner:
// where to send email and the upstream access token. The token is stored
// encrypted; plaintext only ever passes through the OwnersStore boundary.
type Owner struct {
	CreatedAt int            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int            `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// ID is the Dev Space user id.
	ID string `gorm:"primaryKey" json:"id"`
	// Email receives out-of-band notification mails.
	Email string `json:"email"`
	// TokenCipher is the JWE-encrypted upstream access token; empty means
	// the owner has not connected an upstream account.
	TokenCipher []byte `json:"-"`
}

// OwnersStore abstracts owner lookup and token handling. Token returns the
// decrypted access token; the bool is false when the owner is unknown or has
// no token stored, which is a "cannot process" signal rather than an error.
type OwnersStore interface {
	Get(ownerID string) (*Owner, error)
	Upsert(ownerID, email string) (*Owner, error)
	SetToken(ownerID, token string) error
	Token(ownerID string) (string, bool, error)
	Delete(ownerID string) error
}

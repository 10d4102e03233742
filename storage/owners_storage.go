package storage

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwe"
	"github.com/pkg/errors"

	"github.com/devspacehq/pulse/storage/model"
)

// OwnersStorage implements model.OwnersStore using GORM. Upstream access
// tokens are sealed into a JWE (A256KW + A256GCM) before they hit the
// database; the plaintext only exists inside this type's methods.
type OwnersStorage struct {
	db       *gorm.DB
	tokenKey []byte
}

// Get returns an owner by id
func (s *OwnersStorage) Get(ownerID string) (*model.Owner, error) {
	var owner model.Owner
	if err := s.db.Where("id = ?", ownerID).First(&owner).Error; err != nil {
		return nil, model.NotFoundErrorFmt("owner not found: %s", ownerID)
	}
	return &owner, nil
}

// Upsert creates or updates an owner's contact data without touching a
// stored token.
func (s *OwnersStorage) Upsert(ownerID, email string) (*model.Owner, error) {
	owner := model.Owner{ID: ownerID, Email: email}
	err := s.db.Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(
				[]string{
					"email",
					"updated_at",
				},
			),
		},
	).Create(&owner).Error
	if err != nil {
		return nil, err
	}
	return s.Get(ownerID)
}

// SetToken encrypts and stores the owner's upstream access token.
// The owner row is created if it does not exist yet.
func (s *OwnersStorage) SetToken(ownerID, token string) error {
	if len(s.tokenKey) == 0 {
		return errors.New("no token encryption key configured")
	}
	cipher, err := jwe.Encrypt(
		[]byte(token),
		jwe.WithKey(jwa.A256KW(), s.tokenKey),
		jwe.WithContentEncryption(jwa.A256GCM()),
	)
	if err != nil {
		return errors.Wrap(err, "failed to encrypt token")
	}
	owner := model.Owner{ID: ownerID, TokenCipher: cipher}
	return s.db.Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(
				[]string{
					"token_cipher",
					"updated_at",
				},
			),
		},
	).Create(&owner).Error
}

// Token returns the decrypted access token of an owner. The bool is false
// when the owner is unknown or has no token stored; that is not an error.
func (s *OwnersStorage) Token(ownerID string) (string, bool, error) {
	var owner model.Owner
	if err := s.db.Where("id = ?", ownerID).First(&owner).Error; err != nil {
		return "", false, nil
	}
	if len(owner.TokenCipher) == 0 {
		return "", false, nil
	}
	if len(s.tokenKey) == 0 {
		return "", false, errors.New("no token encryption key configured")
	}
	plain, err := jwe.Decrypt(owner.TokenCipher, jwe.WithKey(jwa.A256KW(), s.tokenKey))
	if err != nil {
		return "", false, errors.Wrap(err, "failed to decrypt token")
	}
	return string(plain), true, nil
}

// Delete removes an owner and their stored token
func (s *OwnersStorage) Delete(ownerID string) error {
	res := s.db.Where("id = ?", ownerID).Delete(&model.Owner{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("owner not found: %s", ownerID)
	}
	return nil
}

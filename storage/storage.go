package storage

import (
	"fmt"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/devspacehq/pulse/storage/model"
)

// Storage is a GORM-based storage implementation
type Storage struct {
	db         *gorm.DB
	userParams Argon2idParams
	tokenKey   []byte
	badger     *BadgerCheckpointStorage
}

var models = []any{
	&model.Subject{},
	&model.Checkpoint{},
	&model.Notification{},
	&model.JournalEntry{},
	&model.Owner{},
	&model.KeyValue{},
	&model.User{},
}

// NewStorage creates a new GORM-based storage
func NewStorage(config Config) (*Storage, error) {
	db, err := Connect(config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto migrate the schemas
	if err = db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Fill user hash params with defaults if zero values
	params := config.UsersHash
	if params.Time == 0 {
		params = defaultArgon2idParams()
	}

	tokenKey, err := config.DecodeTokenKey()
	if err != nil {
		return nil, err
	}

	s := &Storage{
		db:         db,
		userParams: params,
		tokenKey:   tokenKey,
	}
	if config.CheckpointBackend == CheckpointBackendBadger {
		s.badger, err = NewBadgerCheckpointStorage(filepath.Join(config.DataDir, "checkpoints"))
		if err != nil {
			return nil, fmt.Errorf("failed to open badger checkpoint store: %w", err)
		}
	}
	return s, nil
}

// SubjectsStorage returns a SubjectsStorage
func (s *Storage) SubjectsStorage() *SubjectsStorage {
	return &SubjectsStorage{db: s.db}
}

// CheckpointStorage returns the configured checkpoint backend
func (s *Storage) CheckpointStorage() model.CheckpointStore {
	if s.badger != nil {
		return s.badger
	}
	return &CheckpointsStorage{db: s.db}
}

// NotificationsStorage returns a NotificationsStorage
func (s *Storage) NotificationsStorage() *NotificationsStorage {
	return &NotificationsStorage{db: s.db}
}

// JournalStorage returns a JournalStorage
func (s *Storage) JournalStorage() *JournalStorage {
	return &JournalStorage{db: s.db}
}

// OwnersStorage returns an OwnersStorage
func (s *Storage) OwnersStorage() *OwnersStorage {
	return &OwnersStorage{db: s.db, tokenKey: s.tokenKey}
}

// Close releases resources held by non-relational backends.
func (s *Storage) Close() error {
	if s.badger != nil {
		return s.badger.Close()
	}
	return nil
}

// LoadStorageBackends initializes a warehouse and returns grouped backends.
func LoadStorageBackends(cfg Config) (model.Backends, error) {
	warehouse, err := NewStorage(cfg)
	if err != nil {
		return model.Backends{}, err
	}
	return model.Backends{
		Subjects:      warehouse.SubjectsStorage(),
		Checkpoints:   warehouse.CheckpointStorage(),
		Notifications: warehouse.NotificationsStorage(),
		Journal:       warehouse.JournalStorage(),
		Owners:        warehouse.OwnersStorage(),
		Users:         warehouse.UsersStorage(),
		KV:            warehouse.KeyValue(),
	}, nil
}

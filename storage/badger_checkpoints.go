package storage

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/devspacehq/pulse/storage/model"
)

// BadgerCheckpointStorage implements model.CheckpointStore on a local badger
// database. Checkpoints are a natural key-value workload; this backend keeps
// the hot per-run cursor writes out of the relational database.
// Values are msgpack-encoded model.Checkpoint records.
type BadgerCheckpointStorage struct {
	db *badger.DB
}

// NewBadgerCheckpointStorage opens (or creates) a badger database at the
// passed path.
func NewBadgerCheckpointStorage(path string) (*BadgerCheckpointStorage, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerCheckpointStorage{db: db}, nil
}

func checkpointKey(subjectID uint) []byte {
	return []byte(fmt.Sprintf("checkpoint:%d", subjectID))
}

// Get returns the checkpoint for a subject, or (nil, nil) when none exists.
func (s *BadgerCheckpointStorage) Get(subjectID uint) (*model.Checkpoint, error) {
	var cp *model.Checkpoint
	err := s.db.View(
		func(txn *badger.Txn) error {
			item, err := txn.Get(checkpointKey(subjectID))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			return item.Value(
				func(val []byte) error {
					var decoded model.Checkpoint
					if err := msgpack.Unmarshal(val, &decoded); err != nil {
						return err
					}
					cp = &decoded
					return nil
				},
			)
		},
	)
	if err != nil {
		return nil, err
	}
	return cp, nil
}

// Upsert merges the update into the stored checkpoint, creating it if absent.
func (s *BadgerCheckpointStorage) Upsert(subjectID uint, upd model.CheckpointUpdate) error {
	return s.db.Update(
		func(txn *badger.Txn) error {
			cp := model.Checkpoint{SubjectID: subjectID}
			item, err := txn.Get(checkpointKey(subjectID))
			if err == nil {
				err = item.Value(
					func(val []byte) error {
						return msgpack.Unmarshal(val, &cp)
					},
				)
				if err != nil {
					return err
				}
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			applyCheckpointUpdate(&cp, upd)
			data, err := msgpack.Marshal(&cp)
			if err != nil {
				return err
			}
			return txn.Set(checkpointKey(subjectID), data)
		},
	)
}

// Delete removes the checkpoint of a subject. No error if it's missing.
func (s *BadgerCheckpointStorage) Delete(subjectID uint) error {
	return s.db.Update(
		func(txn *badger.Txn) error {
			return txn.Delete(checkpointKey(subjectID))
		},
	)
}

// Close closes the underlying badger database.
func (s *BadgerCheckpointStorage) Close() error {
	return s.db.Close()
}

package main

import (
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devspacehq/pulse/cmd/pulse/config"
	"github.com/devspacehq/pulse/storage"
	"github.com/devspacehq/pulse/storage/model"
)

// migrateCheckpoints copies all checkpoints from the currently unused backend
// into the target backend. Subjects are the source of truth for enumeration;
// checkpoints without a subject are left behind.
func migrateCheckpoints(configFile string, target storage.CheckpointBackendType) error {
	config.Load(configFile)
	c := config.Get()

	relational, err := storage.NewStorage(
		storage.Config{
			Driver:   c.Storage.Driver,
			DSN:      c.Storage.DSN,
			DataDir:  c.Storage.DataDir,
			Debug:    c.Storage.Debug,
			TokenKey: c.Storage.TokenKey,
		},
	)
	if err != nil {
		return errors.Wrap(err, "could not open relational storage")
	}
	defer func() {
		_ = relational.Close()
	}()
	if c.Storage.DataDir == "" {
		return errors.New("data_dir must be configured for the badger checkpoint backend")
	}
	badgerStore, err := storage.NewBadgerCheckpointStorage(filepath.Join(c.Storage.DataDir, "checkpoints"))
	if err != nil {
		return errors.Wrap(err, "could not open badger checkpoint storage")
	}
	defer func() {
		_ = badgerStore.Close()
	}()

	var src, dst model.CheckpointStore
	if target == storage.CheckpointBackendBadger {
		src = relational.CheckpointStorage()
		dst = badgerStore
	} else {
		src = badgerStore
		dst = relational.CheckpointStorage()
	}

	subjects, err := relational.SubjectsStorage().List()
	if err != nil {
		return errors.Wrap(err, "could not list subjects")
	}
	migrated := 0
	for _, subject := range subjects {
		cp, err := src.Get(subject.ID)
		if err != nil {
			return errors.Wrapf(err, "could not read checkpoint of subject %d", subject.ID)
		}
		if cp == nil {
			continue
		}
		upd := model.CheckpointUpdate{
			LastSeenID:      cp.LastSeenID,
			LastCheckedAt:   &cp.LastCheckedAt,
			StaleNotifiedAt: &cp.StaleNotifiedAt,
			Enabled:         &cp.Enabled,
		}
		if err = dst.Upsert(subject.ID, upd); err != nil {
			return errors.Wrapf(err, "could not write checkpoint of subject %d", subject.ID)
		}
		migrated++
	}
	log.WithField("checkpoints", migrated).WithField("target", target).Info("migrated checkpoints")
	return nil
}

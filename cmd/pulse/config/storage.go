package config

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devspacehq/pulse/storage"
	"github.com/devspacehq/pulse/storage/model"
)

type storageConf struct {
	Driver  storage.DriverType `yaml:"driver"`
	DataDir string             `yaml:"data_dir"`
	DSN     string             `yaml:"dsn"`
	storage.DSNConf
	CheckpointBackend storage.CheckpointBackendType `yaml:"checkpoint_backend"`
	TokenKey          string                        `yaml:"token_key"`
	Debug             bool                          `yaml:"debug"`
}

func (c *storageConf) validate() error {
	if c.TokenKey == "" {
		return errors.New("error in storage conf: token_key must be specified")
	}
	switch c.CheckpointBackend {
	case "", storage.CheckpointBackendGorm, storage.CheckpointBackendBadger:
	default:
		return errors.Errorf("error in storage conf: unknown checkpoint backend '%s'", c.CheckpointBackend)
	}
	if c.CheckpointBackend == storage.CheckpointBackendBadger && c.DataDir == "" {
		return errors.New("error in storage conf: data_dir must be specified for the badger checkpoint backend")
	}

	if c.Driver == storage.DriverSQLite {
		if c.DataDir == "" {
			return errors.New("error in storage conf: data_dir must be specified")
		}
		return nil
	}
	var err error
	if c.DSN == "" {
		c.DSN, err = storage.DSN(c.Driver, c.DSNConf)
	}
	return err
}

var defaultStorageConf = storageConf{
	Driver: storage.DriverSQLite,
	DSNConf: storage.DSNConf{
		User: "pulse",
		Host: "localhost",
		DB:   "pulse",
	},
	Debug: false,
}

// LoadStorageBackends loads and returns the storage backends for the passed
// storage configuration; management user password hashing parameters come
// from the api section.
func LoadStorageBackends(c storageConf, usersHash storage.Argon2idParams) (model.Backends, error) {
	cfg := storage.Config{
		Driver:            c.Driver,
		DSN:               c.DSN,
		DataDir:           c.DataDir,
		Debug:             c.Debug,
		CheckpointBackend: c.CheckpointBackend,
		TokenKey:          c.TokenKey,
		UsersHash:         usersHash,
	}
	backs, err := storage.LoadStorageBackends(cfg)
	if err != nil {
		return model.Backends{}, err
	}
	log.Info("Loaded storage backend")
	return backs, nil
}

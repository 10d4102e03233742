package config

import "github.com/devspacehq/pulse/storage"

// apiConf holds API-related configuration
type apiConf struct {
	Management managementAPIConf `yaml:"management"`
}

type managementAPIConf struct {
	Enabled        bool                   `yaml:"enabled"`
	UsersEnabled   bool                   `yaml:"users_enabled"`
	Path           string                 `yaml:"path"`
	Argon2idParams storage.Argon2idParams `yaml:"password_hashing"`
}

var defaultAPIConf = apiConf{
	Management: managementAPIConf{
		Enabled:      true,
		UsersEnabled: true,
		Path:         "/manage",
		Argon2idParams: storage.Argon2idParams{
			Time:        1,
			MemoryKiB:   64 * 1024,
			Parallelism: 4,
			KeyLen:      64,
			SaltLen:     32,
		},
	},
}

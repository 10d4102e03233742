package config

type cachingConf struct {
	RedisAddr string `yaml:"redis_addr"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	RedisDB   int    `yaml:"redis_db"`
	// MaxEntries bounds the in-memory cache when redis is not configured.
	MaxEntries int  `yaml:"max_entries"`
	Disabled   bool `yaml:"disabled"`
}

package config

import (
	"os"
	"path/filepath"
	"reflect"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
	"gopkg.in/yaml.v3"

	"github.com/devspacehq/pulse"
)

// Config holds the complete configuration of the pulse service.
type Config struct {
	Server  pulse.ServerConf `yaml:"server"`
	Logging loggingConf      `yaml:"logging"`
	Storage storageConf      `yaml:"storage"`
	Caching cachingConf      `yaml:"caching"`
	Watcher watcherConf      `yaml:"watcher"`
	Mail    mailConf         `yaml:"mail"`
	API     apiConf          `yaml:"api"`
}

var conf *Config

// Get returns the loaded Config
func Get() *Config {
	return conf
}

// configValidator is implemented by config sections that can validate (and
// default) themselves after unmarshalling.
type configValidator interface {
	validate() error
}

func (c *Config) validate() error {
	v := reflect.ValueOf(c).Elem()
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		fieldVal := v.Field(i)
		if fieldVal.CanAddr() {
			ptr := fieldVal.Addr().Interface()
			if validator, ok := ptr.(configValidator); ok {
				if err := validator.validate(); err != nil {
					return errors.Errorf("validation failed for field '%s': %s", t.Field(i).Name, err.Error())
				}
			}
		}
	}
	return nil
}

var possibleConfigLocations = []string{
	".",
	"config",
	"/config",
	"/pulse/config",
	"/pulse",
	"/data/config",
	"/data",
	"/etc/pulse",
}

// Load loads the configuration from the passed file; if filename is empty,
// config.yaml is searched in the default locations. It exits the process on
// any error.
func Load(filename string) {
	if filename == "" {
		for _, dir := range possibleConfigLocations {
			candidate := filepath.Join(dir, "config.yaml")
			if fileutils.FileExists(candidate) {
				filename = candidate
				break
			}
		}
	}
	if filename == "" {
		log.Fatal("could not find config file in any of the default locations")
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		log.WithError(err).Fatal("could not read config file")
	}
	c := Config{
		Logging: defaultLoggingConf,
		Storage: defaultStorageConf,
		Watcher: defaultWatcherConf,
		Mail:    defaultMailConf,
		API:     defaultAPIConf,
	}
	if err = yaml.Unmarshal(data, &c); err != nil {
		log.WithError(err).Fatal("could not parse config file")
	}
	if err = c.validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}
	conf = &c
}

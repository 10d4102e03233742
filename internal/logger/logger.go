package logger

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/devspacehq/pulse/cmd/pulse/config"
)

// Init configures the global logrus logger from the loaded configuration.
// Must be called after config.Load.
func Init() {
	conf := config.Get().Logging.Internal
	level, err := log.ParseLevel(conf.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(
		&log.TextFormatter{
			FullTimestamp: true,
		},
	)

	var writers []io.Writer
	if conf.StdErr || conf.Dir == "" {
		writers = append(writers, os.Stderr)
	}
	if conf.Dir != "" {
		f, ferr := openLogFile(filepath.Join(conf.Dir, "pulse.log"))
		if ferr != nil {
			writers = append(writers, os.Stderr)
			log.WithError(ferr).Error("could not open log file, falling back to stderr")
		} else {
			writers = append(writers, f)
		}
	}
	log.SetOutput(io.MultiWriter(writers...))

	if conf.Smart.Enabled {
		dir := conf.Smart.Dir
		if dir == "" {
			dir = conf.Dir
		}
		f, ferr := openLogFile(filepath.Join(dir, "pulse.error.log"))
		if ferr != nil {
			log.WithError(ferr).Error("could not open smart log file")
		} else {
			log.AddHook(&errorFileHook{out: f})
		}
	}
}

func openLogFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
}

// errorFileHook duplicates error-and-worse entries into a dedicated file so
// they are easy to find in long-running deployments.
type errorFileHook struct {
	out io.Writer
}

// Levels implements log.Hook
func (h *errorFileHook) Levels() []log.Level {
	return []log.Level{
		log.ErrorLevel,
		log.FatalLevel,
		log.PanicLevel,
	}
}

// Fire implements log.Hook
func (h *errorFileHook) Fire(entry *log.Entry) error {
	line, err := entry.Bytes()
	if err != nil {
		return err
	}
	_, err = h.out.Write(line)
	return err
}

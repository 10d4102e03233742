package config

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/duration"

	"github.com/devspacehq/pulse"
)

// watcherConf configures the run pipeline: the trigger endpoint, the fetch
// window, and the staleness evaluation.
type watcherConf struct {
	Endpoint pulse.EndpointConf `yaml:"endpoint"`
	// Secret protects the trigger endpoint; requests must carry it as a
	// bearer token. An empty secret locks the endpoint.
	Secret string `yaml:"secret"`
	// FetchLimit is the upstream fetch window size.
	FetchLimit int `yaml:"fetch_limit"`
	// BacklogLimit caps how many events are derived when the checkpoint is
	// no longer inside the fetch window.
	BacklogLimit       int                     `yaml:"backlog_limit"`
	StalenessThreshold duration.DurationOption `yaml:"staleness_threshold"`
	SubjectTimeout     duration.DurationOption `yaml:"subject_timeout"`
	// Interval enables in-process periodic runs; zero disables them and
	// leaves scheduling to an external trigger.
	Interval duration.DurationOption `yaml:"interval"`
	Upstream upstreamConf            `yaml:"upstream"`
}

type upstreamConf struct {
	BaseURL string                  `yaml:"base_url"`
	Timeout duration.DurationOption `yaml:"timeout"`
}

func (c *watcherConf) validate() error {
	if c.FetchLimit <= 0 {
		return errors.New("error in watcher conf: fetch_limit must be positive")
	}
	if c.BacklogLimit <= 0 {
		return errors.New("error in watcher conf: backlog_limit must be positive")
	}
	if c.BacklogLimit > c.FetchLimit {
		return errors.New("error in watcher conf: backlog_limit cannot exceed fetch_limit")
	}
	if c.StalenessThreshold.Duration() <= 0 {
		return errors.New("error in watcher conf: staleness_threshold must be positive")
	}
	if c.Endpoint.IsSet() && c.Secret == "" {
		log.Warn("watcher endpoint configured without a secret; the endpoint will reject all requests")
	}
	return nil
}

var defaultWatcherConf = watcherConf{
	Endpoint:           pulse.EndpointConf{Path: "/run"},
	FetchLimit:         pulse.DefaultFetchLimit,
	BacklogLimit:       pulse.DefaultBacklogLimit,
	StalenessThreshold: duration.DurationOption(pulse.DefaultStalenessThreshold),
	SubjectTimeout:     duration.DurationOption(pulse.DefaultSubjectTimeout),
	Upstream: upstreamConf{
		Timeout: duration.DurationOption(10 * time.Second),
	},
}

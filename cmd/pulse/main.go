package main

import (
	"os"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/devspacehq/pulse"
	"github.com/devspacehq/pulse/api/watchapi"
	"github.com/devspacehq/pulse/cmd/pulse/config"
	"github.com/devspacehq/pulse/github"
	"github.com/devspacehq/pulse/internal/cache"
	"github.com/devspacehq/pulse/internal/logger"
	"github.com/devspacehq/pulse/mail"
)

func main() {
	var configFile string
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}
	config.Load(configFile)
	logger.Init()
	log.Info("Loaded Config")
	c := config.Get()

	var apiCache cache.Cache = cache.NopCache{}
	if !c.Caching.Disabled {
		if redisAddr := c.Caching.RedisAddr; redisAddr != "" {
			redisCache, err := cache.NewRedis(
				&redis.Options{
					Addr:     redisAddr,
					Username: c.Caching.Username,
					Password: c.Caching.Password,
					DB:       c.Caching.RedisDB,
				},
			)
			if err != nil {
				log.WithError(err).Fatal("could not init redis cache")
			}
			apiCache = redisCache
			log.Info("Loaded Redis Cache")
		} else {
			apiCache = cache.NewInMemory(c.Caching.MaxEntries)
		}
	}

	backs, err := config.LoadStorageBackends(c.Storage, c.API.Management.Argon2idParams)
	if err != nil {
		log.Fatal(err)
	}

	fetcher := github.NewClient(c.Watcher.Upstream.BaseURL, c.Watcher.Upstream.Timeout.Duration())

	var mailer pulse.EmailSender
	var templateExtras map[string]any
	if c.Mail.Enabled() {
		templates := make(map[string]mail.Template, len(c.Mail.Templates))
		for name, t := range c.Mail.Templates {
			templates[name] = mail.Template{Subject: t.Subject, Body: t.Body}
		}
		m, merr := mail.NewMailer(
			mail.Config{
				Host:      c.Mail.Host,
				Port:      c.Mail.Port,
				Username:  c.Mail.Username,
				Password:  c.Mail.Password,
				From:      c.Mail.From,
				Templates: templates,
			},
		)
		if merr != nil {
			log.WithError(merr).Fatal("could not init mail transport")
		}
		mailer = m
		templateExtras = c.Mail.TemplateExtras()
		log.Info("Loaded mail transport")
	}

	dispatcher := &pulse.Dispatcher{
		Notifications:  backs.Notifications,
		Owners:         backs.Owners,
		Mailer:         mailer,
		TemplateExtras: templateExtras,
	}
	staleness := &pulse.StalenessEvaluator{
		Journal:   backs.Journal,
		Threshold: c.Watcher.StalenessThreshold.Duration(),
	}
	orchestrator := &pulse.Orchestrator{
		Subjects:       backs.Subjects,
		Checkpoints:    backs.Checkpoints,
		Credentials:    backs.Owners,
		Fetcher:        fetcher,
		Dispatcher:     dispatcher,
		Staleness:      staleness,
		KV:             backs.KV,
		FetchLimit:     c.Watcher.FetchLimit,
		BacklogLimit:   c.Watcher.BacklogLimit,
		SubjectTimeout: c.Watcher.SubjectTimeout.Duration(),
	}
	log.Println("Initialized watcher")

	p := pulse.NewPulse(c.Server)
	if endpoint := c.Watcher.Endpoint; endpoint.IsSet() {
		p.AddRunEndpoint(endpoint, c.Watcher.Secret, orchestrator)
	}
	if c.API.Management.Enabled {
		err = watchapi.Register(
			p.Server().Group(c.API.Management.Path), backs, apiCache,
			&watchapi.Options{UsersEnabled: c.API.Management.UsersEnabled},
		)
		if err != nil {
			log.Fatal(err)
		}
	}
	if interval := c.Watcher.Interval.Duration(); interval > 0 {
		orchestrator.StartPeriodic(interval)
		log.WithField("interval", interval).Info("Started periodic watcher runs")
	}
	p.Start()
}

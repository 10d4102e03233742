// Package watchapi implements the management API of the watcher: subjects,
// journal entries, notifications, owner credentials, run results, and users.
package watchapi

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/devspacehq/pulse/internal/cache"
	"github.com/devspacehq/pulse/storage/model"
)

// Options controls optional features of the management API registration.
type Options struct {
	// UsersEnabled controls whether the user management API is mounted.
	UsersEnabled bool
	// UnreadCountTTL bounds how long unread counters may be served from
	// cache; zero selects a default of 30s.
	UnreadCountTTL time.Duration
}

// Register mounts all management API routes under the provided group.
func Register(r fiber.Router, storages model.Backends, c cache.Cache, opts *Options) error {
	if opts == nil {
		opts = &Options{UsersEnabled: true}
	}
	if opts.UnreadCountTTL <= 0 {
		opts.UnreadCountTTL = 30 * time.Second
	}

	r.Use(authMiddleware(storages.Users))

	registerSubjects(r, storages.Subjects, storages.Checkpoints)
	registerJournal(r, storages.Subjects, storages.Journal)
	registerNotifications(r, storages.Notifications, c, opts.UnreadCountTTL)
	registerOwners(r, storages.Owners)
	registerRuns(r, storages.KV)
	if opts.UsersEnabled {
		registerUsers(r, storages.Users)
	}
	return nil
}

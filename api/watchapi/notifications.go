package watchapi

import (
	"errors"
	"strconv"
	"strings"
	"time"

	arrays "github.com/adam-hanna/arrayOperations"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/devspacehq/pulse/internal/cache"
	"github.com/devspacehq/pulse/storage/model"
)

const defaultNotificationLimit = 50

// registerNotifications wires the notification read API. The unread counter
// is the hot path of the Dev Space UI, so it is served from cache; any
// mutation of read state invalidates the recipient's counter.
func registerNotifications(
	r fiber.Router, notifications model.NotificationsStore, c cache.Cache, unreadTTL time.Duration,
) {
	g := r.Group("/notifications")

	g.Get(
		"/", func(c *fiber.Ctx) error {
			recipientID := c.Query("recipient_id")
			if recipientID == "" {
				return invalidRequest(c, "recipient_id is required")
			}
			limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultNotificationLimit)))
			if err != nil || limit <= 0 {
				return invalidRequest(c, "invalid limit")
			}
			types, err := parseTypesFilter(c.Query("types"))
			if err != nil {
				return invalidRequest(c, err.Error())
			}
			list, err := notifications.ForRecipient(recipientID, types, limit)
			if err != nil {
				return serverError(c, err.Error())
			}
			return c.JSON(list)
		},
	)

	type unreadCountResponse struct {
		Count int64 `json:"count"`
	}
	g.Get(
		"/unread-count", func(ctx *fiber.Ctx) error {
			recipientID := ctx.Query("recipient_id")
			if recipientID == "" {
				return invalidRequest(ctx, "recipient_id is required")
			}
			key := unreadCountCacheKey(recipientID)
			var cached unreadCountResponse
			if hit, err := c.Get(key, &cached); err != nil {
				log.WithError(err).Debug("unread count cache lookup failed")
			} else if hit {
				return ctx.JSON(cached)
			}
			count, err := notifications.UnreadCount(recipientID)
			if err != nil {
				return serverError(ctx, err.Error())
			}
			res := unreadCountResponse{Count: count}
			if err = c.Set(key, res, unreadTTL); err != nil {
				log.WithError(err).Debug("unread count cache write failed")
			}
			return ctx.JSON(res)
		},
	)

	g.Put(
		"/:notificationID/read",
		unreadCountInvalidationMiddleware(c),
		func(ctx *fiber.Ctx) error {
			recipientID := ctx.Query("recipient_id")
			if recipientID == "" {
				return invalidRequest(ctx, "recipient_id is required")
			}
			id, err := strconv.ParseUint(ctx.Params("notificationID"), 10, 32)
			if err != nil {
				return invalidRequest(ctx, "invalid notification id")
			}
			if err = notifications.MarkRead(uint(id), recipientID); err != nil {
				var notFoundError model.NotFoundError
				if errors.As(err, &notFoundError) {
					return notFound(ctx, "notification not found")
				}
				return serverError(ctx, err.Error())
			}
			return ctx.SendStatus(fiber.StatusNoContent)
		},
	)

	g.Put(
		"/read-all",
		unreadCountInvalidationMiddleware(c),
		func(ctx *fiber.Ctx) error {
			recipientID := ctx.Query("recipient_id")
			if recipientID == "" {
				return invalidRequest(ctx, "recipient_id is required")
			}
			if err := notifications.MarkAllRead(recipientID); err != nil {
				return serverError(ctx, err.Error())
			}
			return ctx.SendStatus(fiber.StatusNoContent)
		},
	)
}

// unreadCountInvalidationMiddleware clears the cached unread counter of the
// recipient for requests that successfully modify read state.
// It should be attached only to non-GET routes.
func unreadCountInvalidationMiddleware(c cache.Cache) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if err := ctx.Next(); err != nil {
			return err
		}
		status := ctx.Response().StatusCode()
		if status >= 200 && status < 400 {
			if recipientID := ctx.Query("recipient_id"); recipientID != "" {
				_ = c.Invalidate(unreadCountCacheKey(recipientID))
			}
		}
		return nil
	}
}

func unreadCountCacheKey(recipientID string) string {
	return cache.Key("notifications", "unread", recipientID)
}

// parseTypesFilter parses the comma-separated types query parameter. Unknown
// type names are rejected; an empty parameter means no filtering.
func parseTypesFilter(param string) ([]model.NotificationType, error) {
	if param == "" {
		return nil, nil
	}
	requested := strings.Split(param, ",")
	valid := arrays.Intersect(requested, model.NotificationTypeNames())
	if len(valid) != len(requested) {
		return nil, errors.New("unknown notification type in filter")
	}
	types := make([]model.NotificationType, 0, len(requested))
	for _, name := range requested {
		t, err := model.ParseNotificationType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

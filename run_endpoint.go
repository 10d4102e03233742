package pulse

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// AddRunEndpoint adds the trigger endpoint for watcher runs. The caller must
// present the shared secret as a bearer token; anything else is rejected
// before any subject is touched.
func (p *Pulse) AddRunEndpoint(endpoint EndpointConf, secret string, orchestrator *Orchestrator) {
	if endpoint.Path == "" {
		return
	}
	p.server.Post(
		endpoint.Path, func(ctx *fiber.Ctx) error {
			if !runAuthorized(ctx, secret) {
				ctx.Status(fiber.StatusUnauthorized)
				return ctx.JSON(
					fiber.Map{
						"error":             "invalid_client",
						"error_description": "missing or invalid credential",
					},
				)
			}
			res, err := orchestrator.RunOnce(ctx.Context())
			if err != nil {
				if errors.Is(err, ErrRunInProgress) {
					ctx.Status(fiber.StatusConflict)
					return ctx.JSON(
						fiber.Map{
							"error":             "run_in_progress",
							"error_description": "a watcher run is already in progress",
						},
					)
				}
				log.WithError(err).Error("watcher run failed")
				ctx.Status(fiber.StatusInternalServerError)
				return ctx.JSON(fiber.Map{"error": "internal_server_error"})
			}
			return ctx.JSON(res)
		},
	)
}

// runAuthorized compares the bearer credential against the configured
// secret. An unconfigured secret locks the endpoint entirely.
func runAuthorized(ctx *fiber.Ctx, secret string) bool {
	if secret == "" {
		return false
	}
	auth := string(ctx.Request().Header.Peek(fiber.HeaderAuthorization))
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(auth[len(prefix):]), []byte(secret)) == 1
}

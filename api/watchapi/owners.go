package watchapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/devspacehq/pulse/storage/model"
)

// registerOwners wires handlers using an OwnersStore abstraction. Access
// tokens are write-only through this API; they are never returned.
func registerOwners(r fiber.Router, owners model.OwnersStore) {
	g := r.Group("/owners")

	type upsertReq struct {
		Email string `json:"email"`
	}
	g.Put(
		"/:ownerID", func(c *fiber.Ctx) error {
			var req upsertReq
			if err := c.BodyParser(&req); err != nil {
				return invalidRequest(c, "invalid body")
			}
			owner, err := owners.Upsert(c.Params("ownerID"), req.Email)
			if err != nil {
				return serverError(c, err.Error())
			}
			return c.JSON(owner)
		},
	)

	g.Get(
		"/:ownerID", func(c *fiber.Ctx) error {
			owner, err := owners.Get(c.Params("ownerID"))
			if err != nil {
				return notFound(c, "owner not found")
			}
			return c.JSON(owner)
		},
	)

	type tokenReq struct {
		Token string `json:"token"`
	}
	g.Put(
		"/:ownerID/token", func(c *fiber.Ctx) error {
			var req tokenReq
			if err := c.BodyParser(&req); err != nil {
				return invalidRequest(c, "invalid body")
			}
			if req.Token == "" {
				return invalidRequest(c, "token is required")
			}
			if err := owners.SetToken(c.Params("ownerID"), req.Token); err != nil {
				return serverError(c, err.Error())
			}
			return c.SendStatus(fiber.StatusNoContent)
		},
	)

	g.Delete(
		"/:ownerID", func(c *fiber.Ctx) error {
			if err := owners.Delete(c.Params("ownerID")); err != nil {
				return serverError(c, err.Error())
			}
			return c.SendStatus(fiber.StatusNoContent)
		},
	)
}

package watchapi

import (
	"github.com/gofiber/fiber/v2"
)

func errorResponse(c *fiber.Ctx, status int, err, description string) error {
	return c.Status(status).JSON(
		fiber.Map{
			"error":             err,
			"error_description": description,
		},
	)
}

func serverError(c *fiber.Ctx, description string) error {
	return errorResponse(c, fiber.StatusInternalServerError, "server_error", description)
}

func invalidRequest(c *fiber.Ctx, description string) error {
	return errorResponse(c, fiber.StatusBadRequest, "invalid_request", description)
}

func notFound(c *fiber.Ctx, description string) error {
	return errorResponse(c, fiber.StatusNotFound, "not_found", description)
}

func conflict(c *fiber.Ctx, description string) error {
	return errorResponse(c, fiber.StatusConflict, "invalid_request", description)
}

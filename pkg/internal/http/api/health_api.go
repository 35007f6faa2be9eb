package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

func (v *Handler) getHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), v.timeout)
	defer cancel()

	if err := v.health.Ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "degraded",
			"database": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"status":   "ok",
		"database": "ok",
	})
}

package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Health reports liveness. The db field is informational; the probe itself never fails.
func Health(ping func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		db := "connected"
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				db = "disconnected"
			}
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"db":     db,
		})
	}
}

package handlers

import (
	"errors"
	"log"

	"cultivation-system/services"

	"github.com/gofiber/fiber/v2"
)

// respondError maps the service error taxonomy onto HTTP statuses:
// insufficiency → 400 with the amounts, not-found → 404, illegal state →
// 409, generation exhaustion → 502, anything else → generic 500.
func respondError(c *fiber.Ctx, err error) error {
	var insufficient *services.InsufficientError
	if errors.As(err, &insufficient) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     "insufficient " + insufficient.Resource,
			"required":  insufficient.Required,
			"available": insufficient.Available,
		})
	}

	var illegal *services.IllegalStateError
	if errors.As(err, &illegal) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": illegal.Error(),
		})
	}

	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "not found",
		})
	}

	if errors.Is(err, services.ErrGenerationExhausted) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "content generation exhausted retries",
		})
	}

	log.Printf("❌ [HTTP] unexpected error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal error",
	})
}

package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware extracts the user identity set by the gateway. The
// auth provider lives upstream; this service only trusts the forwarded
// headers.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		displayName := strings.TrimSpace(c.Get("X-User-Name"))

		c.Locals("user_id", userID)
		c.Locals("display_name", displayName)

		return c.Next()
	}
}

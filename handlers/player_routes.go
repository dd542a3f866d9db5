package handlers

import (
	"strconv"

	"cultivation-system/middleware"
	"cultivation-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPlayerRoutes(app *fiber.App, playerService *services.PlayerService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/player", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		displayName := c.Locals("display_name").(string)

		player, err := playerService.EnsurePlayer(userID, displayName)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{
			"player":       player,
			"realm_name":   player.Realm.DisplayName(),
			"breakthrough": services.EligibilityFor(player),
		})
	})

	securedGroup.Post("/player/cultivate", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		player, gained, err := playerService.Cultivate(userID)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{
			"player":    player,
			"qi_gained": gained,
		})
	})

	securedGroup.Post("/player/breakthrough", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		outcome, err := playerService.AttemptBreakthrough(userID)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(outcome)
	})

	securedGroup.Post("/player/cave/upgrade", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		player, err := playerService.UpgradeCave(userID)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{
			"player":     player,
			"cave_level": player.CaveLevel,
		})
	})

	securedGroup.Get("/player/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		limit, _ := strconv.Atoi(c.Query("limit", "20"))

		logs, err := playerService.GetHistory(userID, limit)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{"history": logs})
	})
}

package handlers

import (
	"strconv"
	"time"

	"cultivation-system/middleware"
	"cultivation-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLeaderboardRoutes(app *fiber.App, leaderboardService *services.LeaderboardService, playerService *services.PlayerService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))

		season, err := leaderboardService.EnsureActiveSeason(time.Now())
		if err != nil {
			return respondError(c, err)
		}

		entries, err := leaderboardService.Top(season.ID, limit)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{
			"season":  season,
			"entries": entries,
		})
	})

	securedGroup.Get("/leaderboard/me", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		player, err := playerService.GetPlayer(userID)
		if err != nil {
			return respondError(c, err)
		}

		season, err := leaderboardService.EnsureActiveSeason(time.Now())
		if err != nil {
			return respondError(c, err)
		}

		entry, err := leaderboardService.Entry(season.ID, player.ID)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(entry)
	})

	securedGroup.Post("/leaderboard/refresh", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		player, err := playerService.GetPlayer(userID)
		if err != nil {
			return respondError(c, err)
		}

		entry, err := leaderboardService.Refresh(player)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(entry)
	})
}

package handlers

import (
	"cultivation-system/middleware"
	"cultivation-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTaskRoutes(app *fiber.App, taskService *services.TaskService, playerService *services.PlayerService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/tasks", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		includeExpired := c.Query("include_expired") == "true"

		player, err := playerService.GetPlayer(userID)
		if err != nil {
			return respondError(c, err)
		}

		tasks, err := taskService.ListTasks(player.ID, includeExpired)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{"tasks": tasks})
	})

	securedGroup.Post("/tasks/generate", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		player, err := playerService.GetPlayer(userID)
		if err != nil {
			return respondError(c, err)
		}

		task, err := taskService.GenerateTask(c.Context(), player)
		if err != nil {
			return respondError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(task)
	})

	securedGroup.Post("/tasks/:id/accept", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		taskID := c.Params("id")

		player, err := playerService.GetPlayer(userID)
		if err != nil {
			return respondError(c, err)
		}

		task, err := taskService.AcceptTask(player.ID, taskID)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(task)
	})

	securedGroup.Post("/tasks/:id/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		taskID := c.Params("id")

		player, err := playerService.GetPlayer(userID)
		if err != nil {
			return respondError(c, err)
		}

		task, credited, err := taskService.CompleteTask(player.ID, taskID)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{
			"task":   task,
			"player": credited,
		})
	})

	securedGroup.Post("/tasks/:id/fail", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		taskID := c.Params("id")

		player, err := playerService.GetPlayer(userID)
		if err != nil {
			return respondError(c, err)
		}

		task, err := taskService.FailTask(player.ID, taskID)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(task)
	})
}

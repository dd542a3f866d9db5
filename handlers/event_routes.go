package handlers

import (
	"cultivation-system/middleware"
	"cultivation-system/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

func SetupEventRoutes(app *fiber.App, eventService *services.EventService, contentService *services.ContentService, playerService *services.PlayerService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Post("/events/generate", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		player, err := playerService.GetPlayer(userID)
		if err != nil {
			return respondError(c, err)
		}

		event, err := eventService.OfferEvent(c.Context(), player)
		if err != nil {
			return respondError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(event)
	})

	securedGroup.Post("/events/:id/resolve", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		eventID := c.Params("id")

		type Req struct {
			Choice *int `json:"choice" validate:"required,gte=0,lte=3"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if err := validate.Struct(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "choice is required and must be between 0 and 3",
			})
		}

		player, err := playerService.GetPlayer(userID)
		if err != nil {
			return respondError(c, err)
		}

		event, credited, err := eventService.ResolveChoice(c.Context(), player.ID, eventID, *req.Choice)
		if err != nil {
			return respondError(c, err)
		}

		resp := fiber.Map{"event": event}
		if credited != nil {
			resp["player"] = credited
		}
		return c.JSON(resp)
	})

	securedGroup.Post("/quiz/generate", func(c *fiber.Ctx) error {
		type Req struct {
			Topic string `json:"topic" validate:"required,max=120"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if err := validate.Struct(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "topic is required",
			})
		}

		if !contentService.Enabled() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "no generation backend configured",
			})
		}

		quiz, err := contentService.GenerateQuiz(c.Context(), req.Topic)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(quiz)
	})

	securedGroup.Post("/summarize", func(c *fiber.Ctx) error {
		type Req struct {
			URL string `json:"url" validate:"required,url"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if err := validate.Struct(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "url is required and must be a valid URL",
			})
		}

		if !contentService.Enabled() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "no generation backend configured",
			})
		}

		summary, err := contentService.SummarizeURL(c.Context(), req.URL)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{"summary": summary})
	})
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cultivation-system/handlers"
	"cultivation-system/models"
	"cultivation-system/services"
	"cultivation-system/utils"
	"cultivation-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New()

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Name",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Player{},
		&models.StatusEffect{},
		&models.BreakthroughRecord{},
		&models.EventLog{},
		&models.Task{},
		&models.GameEvent{},
		&models.Season{},
		&models.LeaderboardEntry{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	rng := services.NewRand()
	contentService := services.NewContentService(backendOrNil())
	playerService := services.NewPlayerService(db, rng)
	taskService := services.NewTaskService(db, contentService, rng)
	eventService := services.NewEventService(db, contentService, rng)
	leaderboardService := services.NewLeaderboardService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	playerService.StartCultivationScheduler()

	if err := utils.InitR2(); err != nil {
		log.Printf("⚠️  R2 init failed, season archival disabled: %v", err)
	} else if utils.R2Enabled() {
		archiveWorker := workers.NewSeasonArchiveWorker(leaderboardService)
		go archiveWorker.Run(ctx, 1*time.Hour)
	}

	handlers.SetupPlayerRoutes(app, playerService)
	handlers.SetupTaskRoutes(app, taskService, playerService)
	handlers.SetupEventRoutes(app, eventService, contentService, playerService)
	handlers.SetupLeaderboardRoutes(app, leaderboardService, playerService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Cultivation scheduler running (every 1m)")
	if contentService.Enabled() {
		log.Println("✅ Content generation backend configured")
	} else {
		log.Println("⚠️  AI_SERVICE_URL not set — tasks and events fall back to the seed catalog")
	}
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}

func backendOrNil() services.TextGenerator {
	client := services.NewBackendClientFromEnv()
	if client == nil {
		return nil
	}
	return client
}

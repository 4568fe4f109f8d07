package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-batch-grader/internal/budget"
	"github.com/noah-isme/gema-batch-grader/internal/config"
	"github.com/noah-isme/gema-batch-grader/internal/database"
	"github.com/noah-isme/gema-batch-grader/internal/grading"
	"github.com/noah-isme/gema-batch-grader/internal/handler"
	"github.com/noah-isme/gema-batch-grader/internal/middleware"
	"github.com/noah-isme/gema-batch-grader/internal/models"
	"github.com/noah-isme/gema-batch-grader/internal/repository"
	"github.com/noah-isme/gema-batch-grader/internal/router"
	"github.com/noah-isme/gema-batch-grader/internal/service"
	"github.com/noah-isme/gema-batch-grader/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.Connect(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.BatchRun{}, &models.StudentOutcome{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	assessor, err := ai.NewOpenAIAssessor(ai.OpenAIConfig{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.AssessorModel,
		MaxTokens:   cfg.AssessorMaxTokens,
		Temperature: cfg.AssessorTemperature,
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("failed to create assessor: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	budgetCfg := budget.Config{
		ContextWindow:   cfg.ContextWindow,
		InputFraction:   cfg.InputFraction,
		PriorityTable:   budget.DefaultPriorityTable(),
		DefaultPriority: 10,
	}

	cache := service.NewAssessmentCache(redisClient, cfg.AssessmentCacheTTL, logger)
	notifier := service.NewProgressNotifier(natsConn, cfg.NATSSubject, logger)

	orchestrator := grading.NewOrchestrator(assessor, cache, notifier, grading.Config{
		MaxConcurrency:   cfg.MaxConcurrency,
		TaskTimeout:      cfg.TaskTimeout,
		TransportRetries: cfg.TransportRetries,
	}, logger)

	batchRepo := repository.NewBatchRunRepository(db)
	batchService := service.NewBatchGradingService(batchRepo, orchestrator, budgetCfg, validate, logger)
	batchHandler := handler.NewBatchHandler(batchService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    64 * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		BatchHandler: batchHandler,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}

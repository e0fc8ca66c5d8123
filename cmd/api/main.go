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
	"github.com/rs/zerolog"

	"github.com/kodegym/kodegym/internal/config"
	"github.com/kodegym/kodegym/internal/database"
	"github.com/kodegym/kodegym/internal/dto"
	"github.com/kodegym/kodegym/internal/handler"
	"github.com/kodegym/kodegym/internal/middleware"
	"github.com/kodegym/kodegym/internal/models"
	"github.com/kodegym/kodegym/internal/queue"
	"github.com/kodegym/kodegym/internal/repository"
	"github.com/kodegym/kodegym/internal/router"
	"github.com/kodegym/kodegym/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("jwt secret must be provided")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "core").Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Lesson{}, &models.Submission{}, &models.UserLessonProgress{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	conn, err := queue.Connect(queue.Config{URL: cfg.NATSURL, Logger: logger})
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	defer conn.Drain()

	if err := queue.EnsureStream(conn, dto.SubmissionQueue, dto.ResultQueue, dto.AIEventQueue); err != nil {
		log.Fatalf("failed to ensure stream: %v", err)
	}

	publisher, err := queue.NewPublisher(conn, logger)
	if err != nil {
		log.Fatalf("failed to create publisher: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	lessonRepo := repository.NewLessonRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	progressRepo := repository.NewProgressRepository(db)

	gradingService := service.NewGradingService(submissionRepo, lessonRepo, progressRepo, publisher, validate, logger)

	consumer, err := queue.NewConsumer(conn, 30*time.Second, logger)
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}

	consumerCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()

	if err := consumer.Consume(consumerCtx, dto.ResultQueue, "core-results", gradingService.HandleResult); err != nil {
		log.Fatalf("failed to start result consumer: %v", err)
	}

	submissionHandler := handler.NewSubmissionHandler(gradingService, validate, logger)
	internalHandler := handler.NewInternalHandler(lessonRepo, progressRepo, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.RegisterCore(app, cfg, router.CoreDependencies{
		SubmissionHandler: submissionHandler,
		InternalHandler:   internalHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopConsumers)
}

func waitForShutdown(app *fiber.App, stopConsumers context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopConsumers()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}

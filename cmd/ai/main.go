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

	"github.com/kodegym/kodegym/internal/cluster"
	"github.com/kodegym/kodegym/internal/config"
	"github.com/kodegym/kodegym/internal/coreclient"
	"github.com/kodegym/kodegym/internal/database"
	"github.com/kodegym/kodegym/internal/dto"
	"github.com/kodegym/kodegym/internal/handler"
	"github.com/kodegym/kodegym/internal/middleware"
	"github.com/kodegym/kodegym/internal/models"
	"github.com/kodegym/kodegym/internal/queue"
	"github.com/kodegym/kodegym/internal/repository"
	"github.com/kodegym/kodegym/internal/router"
	"github.com/kodegym/kodegym/internal/service"
	"github.com/kodegym/kodegym/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "ai").Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.ErrorRecord{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	embedder, err := ai.NewOpenAIEmbedder(ai.OpenAIConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.EmbeddingModel,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("failed to create embedder: %v", err)
	}

	conn, err := queue.Connect(queue.Config{URL: cfg.NATSURL, Logger: logger})
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	defer conn.Drain()

	if err := queue.EnsureStream(conn, dto.SubmissionQueue, dto.ResultQueue, dto.AIEventQueue); err != nil {
		log.Fatalf("failed to ensure stream: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	recordRepo := repository.NewErrorRecordRepository(db)

	ingestService := service.NewIngestService(recordRepo, embedder, validate, logger)

	consumer, err := queue.NewConsumer(conn, 30*time.Second, logger)
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}

	consumerCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()

	if err := consumer.Consume(consumerCtx, dto.AIEventQueue, "ai-ingest", ingestService.HandleEvent); err != nil {
		log.Fatalf("failed to start ingestion consumer: %v", err)
	}

	core := coreclient.New(coreclient.Config{BaseURL: cfg.CoreBaseURL, Logger: logger})

	recommendService := service.NewRecommendationService(recordRepo, core, redisClient, service.RecommendConfig{
		Window:     cfg.RecommendWindow,
		MinSamples: cfg.ClusterMinPoints,
		Cluster: cluster.Config{
			Eps:       cfg.ClusterEps,
			MinPoints: cfg.ClusterMinPoints,
		},
		CacheTTL: cfg.RecommendCacheTTL,
	}, logger)

	recommendationHandler := handler.NewRecommendationHandler(recommendService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName + " AI",
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.RegisterAI(app, cfg, router.AIDependencies{
		RecommendationHandler: recommendationHandler,
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

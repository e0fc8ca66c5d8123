package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/kodegym/kodegym/internal/config"
	"github.com/kodegym/kodegym/internal/dto"
	"github.com/kodegym/kodegym/internal/queue"
	"github.com/kodegym/kodegym/internal/service"
	"github.com/kodegym/kodegym/pkg/sandbox"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "executor").Logger()

	executor, err := sandbox.NewDockerExecutor(sandbox.Config{
		Host:          cfg.DockerHost,
		MemoryLimitMB: int64(cfg.CodeRunMemoryMB),
		CPUShares:     int64(cfg.CodeRunCPUShares),
		Logger:        logger,
	})
	if err != nil {
		log.Fatalf("failed to create docker executor: %v", err)
	}
	defer executor.Close()

	runner := sandbox.NewRunner(executor, sandbox.RunnerConfig{
		Image:         cfg.SandboxImage,
		RunTimeout:    cfg.RunTimeout,
		SuiteTimeout:  cfg.SuiteTimeout,
		WorkspaceRoot: cfg.ExecutorWorkspace,
		MemoryLimitMB: int64(cfg.CodeRunMemoryMB),
		CPUShares:     int64(cfg.CodeRunCPUShares),
	}, logger)

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
	executorService := service.NewExecutorService(runner, publisher, validate, logger)

	// Per-message budget covers the slower suite path plus container setup.
	consumer, err := queue.NewConsumer(conn, cfg.SuiteTimeout*3, logger)
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.Consume(ctx, dto.SubmissionQueue, "executor-workers", executorService.HandleSubmission); err != nil {
		log.Fatalf("failed to start submission consumer: %v", err)
	}

	logger.Info().Msg("executor worker started")
	<-ctx.Done()
	log.Println("executor stopped")
}

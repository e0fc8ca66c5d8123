package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/kodegym/kodegym/internal/dto"
	"github.com/kodegym/kodegym/internal/queue"
	"github.com/kodegym/kodegym/pkg/sandbox"
)

// Grader executes one submission and returns its verdict.
type Grader interface {
	Execute(ctx context.Context, code, testCode string) sandbox.Verdict
}

// ExecutorService consumes submission requests, grades them in the sandbox
// and publishes the verdict. Re-grading the same submission is harmless: the
// core applies results idempotently, so a redelivered request only costs one
// extra container run.
type ExecutorService interface {
	HandleSubmission(ctx context.Context, data []byte) error
}

type executorService struct {
	grader    Grader
	publisher queue.Publisher
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewExecutorService constructs the grading worker.
func NewExecutorService(grader Grader, publisher queue.Publisher, validate *validator.Validate, logger zerolog.Logger) ExecutorService {
	return &executorService{
		grader:    grader,
		publisher: publisher,
		validator: validate,
		logger:    logger.With().Str("component", "executor_service").Logger(),
	}
}

func (s *executorService) HandleSubmission(ctx context.Context, data []byte) error {
	var request dto.SubmissionRequestMessage
	if err := json.Unmarshal(data, &request); err != nil {
		return fmt.Errorf("malformed submission request: %w", err)
	}
	if err := s.validator.Struct(request); err != nil {
		return fmt.Errorf("invalid submission request: %w", err)
	}

	verdict := s.grader.Execute(ctx, request.Code, request.TestCode)

	result := dto.GradingResultMessage{
		SubmissionID: request.SubmissionID,
		Status:       verdict.Status,
		Output:       verdict.Output,
	}

	if err := s.publisher.Publish(ctx, dto.ResultQueue, result); err != nil {
		return queue.Retryable(fmt.Errorf("publish result for %s: %w", request.SubmissionID, err))
	}

	s.logger.Info().
		Str("submission_id", request.SubmissionID).
		Str("status", verdict.Status).
		Msg("submission graded")

	return nil
}

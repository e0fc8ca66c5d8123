package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kodegym/kodegym/internal/dto"
	"github.com/kodegym/kodegym/internal/models"
	"github.com/kodegym/kodegym/internal/observability"
	"github.com/kodegym/kodegym/internal/queue"
	"github.com/kodegym/kodegym/internal/repository"
)

// ErrLessonNotFound indicates the target lesson does not exist.
var ErrLessonNotFound = errors.New("lesson not found")

// ErrSubmissionNotFound indicates the submission cannot be located.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrSubmissionForbidden indicates the caller does not own the submission.
var ErrSubmissionForbidden = errors.New("forbidden")

// GradingService owns the submission lifecycle: enqueue for grading, apply
// results, and trigger downstream side effects.
type GradingService interface {
	Submit(ctx context.Context, userID, lessonID uint, code string) (string, error)
	Get(ctx context.Context, submissionID string, viewerID uint) (dto.SubmissionResponse, error)
	HandleResult(ctx context.Context, data []byte) error
}

type gradingService struct {
	submissions repository.SubmissionRepository
	lessons     repository.LessonRepository
	progress    repository.ProgressRepository
	publisher   queue.Publisher
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewGradingService constructs the grading orchestrator.
func NewGradingService(
	submissionRepo repository.SubmissionRepository,
	lessonRepo repository.LessonRepository,
	progressRepo repository.ProgressRepository,
	publisher queue.Publisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) GradingService {
	return &gradingService{
		submissions: submissionRepo,
		lessons:     lessonRepo,
		progress:    progressRepo,
		publisher:   publisher,
		validator:   validate,
		logger:      logger.With().Str("component", "grading_service").Logger(),
	}
}

func (s *gradingService) Submit(ctx context.Context, userID, lessonID uint, code string) (string, error) {
	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrLessonNotFound
		}
		return "", fmt.Errorf("load lesson %d: %w", lessonID, err)
	}

	submission := models.Submission{
		ID:       uuid.NewString(),
		UserID:   userID,
		LessonID: lessonID,
		Code:     code,
		TestCode: lesson.TestCode,
		Status:   models.SubmissionStatusPending,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return "", fmt.Errorf("persist submission: %w", err)
	}

	request := dto.SubmissionRequestMessage{
		SubmissionID: submission.ID,
		LessonID:     lessonID,
		Code:         code,
		TestCode:     lesson.TestCode,
	}
	if err := s.publisher.Publish(ctx, dto.SubmissionQueue, request); err != nil {
		// No grading result will ever arrive for this row; move it to a
		// terminal state so nothing stays pending forever.
		if _, _, markErr := s.submissions.ApplyResult(ctx, submission.ID, models.SubmissionStatusError, "submission could not be queued for grading"); markErr != nil {
			s.logger.Error().Err(markErr).Str("submission_id", submission.ID).Msg("failed to mark unqueued submission")
		}
		return "", fmt.Errorf("enqueue submission %s: %w", submission.ID, err)
	}

	observability.SubmissionsEnqueued().Inc()
	s.logger.Info().Str("submission_id", submission.ID).Uint("lesson_id", lessonID).Msg("submission enqueued")

	return submission.ID, nil
}

func (s *gradingService) Get(ctx context.Context, submissionID string, viewerID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if submission.UserID != viewerID {
		return dto.SubmissionResponse{}, ErrSubmissionForbidden
	}

	return dto.NewSubmissionResponse(submission), nil
}

// HandleResult consumes one grading result message. Duplicate and
// out-of-order deliveries are tolerated: the status upsert and the
// completion marker are both idempotent.
func (s *gradingService) HandleResult(ctx context.Context, data []byte) error {
	var result dto.GradingResultMessage
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("malformed grading result: %w", err)
	}
	if err := s.validator.Struct(result); err != nil {
		return fmt.Errorf("invalid grading result: %w", err)
	}

	stored, applied, err := s.submissions.ApplyResult(ctx, result.SubmissionID, result.Status, result.Output)
	if err != nil {
		return queue.Retryable(fmt.Errorf("apply result for %s: %w", result.SubmissionID, err))
	}

	observability.ResultsApplied().WithLabelValues(result.Status).Inc()

	switch result.Status {
	case models.SubmissionStatusSuccess:
		if stored.UserID == 0 {
			// Upsert-created from a result that beat its pending row; there
			// is no owner to credit yet.
			return nil
		}
		if err := s.progress.MarkCompleted(ctx, stored.UserID, stored.LessonID); err != nil {
			return queue.Retryable(fmt.Errorf("mark lesson %d complete: %w", stored.LessonID, err))
		}
	case models.SubmissionStatusError:
		if !applied {
			// Duplicate delivery of a terminal result; the error event has
			// already been forwarded.
			return nil
		}
		s.forwardErrorEvent(ctx, stored, result.Output)
	}

	return nil
}

// forwardErrorEvent enriches a failed submission with lesson context and
// hands it to the ingestion pipeline. Missing lesson context degrades to a
// logged warning, never a consumer failure.
func (s *gradingService) forwardErrorEvent(ctx context.Context, submission models.Submission, output string) {
	lesson, err := s.lessons.GetByID(ctx, submission.LessonID)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("submission_id", submission.ID).
			Uint("lesson_id", submission.LessonID).
			Msg("lesson context unavailable, dropping error event")
		return
	}

	event := dto.ErrorEventMessage{
		UserID:     submission.UserID,
		LessonID:   submission.LessonID,
		UserCode:   submission.Code,
		TestResult: dto.TestResultPayload{OutputLog: output},
		LessonContext: dto.LessonContextPayload{
			LessonContent:      lesson.Content,
			TestCode:           lesson.TestCode,
			ExpectedConstructs: lesson.ExpectedConstructList(),
		},
	}

	if err := s.publisher.Publish(ctx, dto.AIEventQueue, event); err != nil {
		s.logger.Warn().Err(err).Str("submission_id", submission.ID).Msg("failed to forward error event")
		return
	}

	observability.ErrorEventsForwarded().Inc()
}

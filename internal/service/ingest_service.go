package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/kodegym/kodegym/internal/analysis"
	"github.com/kodegym/kodegym/internal/dto"
	"github.com/kodegym/kodegym/internal/models"
	"github.com/kodegym/kodegym/internal/observability"
	"github.com/kodegym/kodegym/internal/queue"
	"github.com/kodegym/kodegym/internal/repository"
	"github.com/kodegym/kodegym/pkg/ai"
)

// IngestService turns error events into enriched, embedded error records.
type IngestService interface {
	HandleEvent(ctx context.Context, data []byte) error
}

type ingestService struct {
	records   repository.ErrorRecordRepository
	embedder  ai.Embedder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewIngestService constructs the ingestion consumer.
func NewIngestService(recordRepo repository.ErrorRecordRepository, embedder ai.Embedder, validate *validator.Validate, logger zerolog.Logger) IngestService {
	return &ingestService{
		records:   recordRepo,
		embedder:  embedder,
		validator: validate,
		logger:    logger.With().Str("component", "ingest_service").Logger(),
	}
}

// HandleEvent processes one error event. Malformed producer input is dropped
// (logged, never retried); embedding failures drop the event too so a flaky
// model cannot wedge the queue. The record is persisted with its embedding in
// one step: no half-formed rows.
func (s *ingestService) HandleEvent(ctx context.Context, data []byte) error {
	var event dto.ErrorEventMessage
	if err := json.Unmarshal(data, &event); err != nil {
		observability.EventsDropped().WithLabelValues("malformed").Inc()
		return fmt.Errorf("malformed error event: %w", err)
	}

	if err := s.validator.Struct(event); err != nil {
		observability.EventsDropped().WithLabelValues("invalid").Inc()
		s.logger.Warn().Err(err).Uint("user_id", event.UserID).Msg("dropping incomplete error event")
		return fmt.Errorf("invalid error event: %w", err)
	}

	summary := analysis.Inspect(event.UserCode)
	analysisJSON, err := json.Marshal(summary)
	if err != nil {
		observability.EventsDropped().WithLabelValues("analysis").Inc()
		return fmt.Errorf("encode analysis: %w", err)
	}

	vector, err := s.embedder.Embed(ctx, event.LessonContext.LessonContent)
	if err != nil {
		observability.EventsDropped().WithLabelValues("embedding").Inc()
		s.logger.Error().Err(err).
			Uint("user_id", event.UserID).
			Uint("lesson_id", event.LessonID).
			Msg("embedding unavailable, dropping error event")
		return fmt.Errorf("embed lesson content: %w", err)
	}

	embeddingJSON, err := json.Marshal(vector)
	if err != nil {
		observability.EventsDropped().WithLabelValues("embedding").Inc()
		return fmt.Errorf("encode embedding: %w", err)
	}

	constructsJSON, err := json.Marshal(event.LessonContext.ExpectedConstructs)
	if err != nil {
		constructsJSON = []byte("[]")
	}

	record := models.ErrorRecord{
		UserID:             event.UserID,
		LessonID:           event.LessonID,
		Analysis:           datatypes.JSON(analysisJSON),
		LessonContent:      event.LessonContext.LessonContent,
		Embedding:          datatypes.JSON(embeddingJSON),
		ExpectedConstructs: datatypes.JSON(constructsJSON),
		TestOutput:         event.TestResult.OutputLog,
	}

	if err := s.records.Append(ctx, &record); err != nil {
		return queue.Retryable(fmt.Errorf("persist error record: %w", err))
	}

	observability.EventsIngested().Inc()
	s.logger.Info().
		Uint("user_id", event.UserID).
		Uint("lesson_id", event.LessonID).
		Bool("parsed", summary.ParseError == "").
		Msg("error record persisted")

	return nil
}

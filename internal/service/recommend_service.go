package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kodegym/kodegym/internal/analysis"
	"github.com/kodegym/kodegym/internal/cluster"
	"github.com/kodegym/kodegym/internal/coreclient"
	"github.com/kodegym/kodegym/internal/dto"
	"github.com/kodegym/kodegym/internal/models"
	"github.com/kodegym/kodegym/internal/observability"
	"github.com/kodegym/kodegym/internal/repository"
)

const (
	msgKeepLearning = "Not enough error history yet. Keep learning!"
	msgTooVaried    = "Your recent errors are too varied to point at one topic. Keep practising!"
	msgRevisit      = "Your recent errors concentrate around these lessons. Revisit them!"
)

// RecommendConfig tunes the clustering-based recommendation.
type RecommendConfig struct {
	// Window caps how many recent error records are considered per user.
	Window int
	// MinSamples is the floor below which no recommendation is attempted;
	// clustering 0-1 points is meaningless.
	MinSamples int
	Cluster    cluster.Config
	CacheTTL   time.Duration
}

// RecommendationService derives lesson recommendations from clustered error
// history. Read-only: it never mutates the error log.
type RecommendationService interface {
	Recommend(ctx context.Context, userID uint) dto.Recommendation
}

type recommendationService struct {
	records repository.ErrorRecordRepository
	core    coreclient.Client
	cache   *redis.Client
	cfg     RecommendConfig
	logger  zerolog.Logger
}

// NewRecommendationService constructs the recommendation engine. cache may
// be nil; caching is then skipped.
func NewRecommendationService(recordRepo repository.ErrorRecordRepository, core coreclient.Client, cache *redis.Client, cfg RecommendConfig, logger zerolog.Logger) RecommendationService {
	if cfg.Window <= 0 {
		cfg.Window = 30
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = 2
	}
	if cfg.Cluster.Eps <= 0 || cfg.Cluster.MinPoints <= 0 {
		cfg.Cluster = cluster.DefaultConfig()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}

	return &recommendationService{
		records: recordRepo,
		core:    core,
		cache:   cache,
		cfg:     cfg,
		logger:  logger.With().Str("component", "recommendation_service").Logger(),
	}
}

// Recommend always returns a defined variant, degrading gracefully when
// upstream dependencies fail.
func (s *recommendationService) Recommend(ctx context.Context, userID uint) dto.Recommendation {
	if cached, ok := s.fromCache(ctx, userID); ok {
		return cached
	}

	recommendation := s.compute(ctx, userID)
	observability.RecommendationsServed().WithLabelValues(recommendation.Type).Inc()
	s.storeCache(ctx, userID, recommendation)

	return recommendation
}

func (s *recommendationService) compute(ctx context.Context, userID uint) dto.Recommendation {
	completed := s.completedSet(ctx, userID)

	records, err := s.records.RecentByUser(ctx, userID, s.cfg.Window)
	if err != nil {
		s.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to load error records")
		return noRecommendation(msgKeepLearning)
	}

	qualifying := make([]models.ErrorRecord, 0, len(records))
	for _, record := range records {
		if _, done := completed[record.LessonID]; done {
			continue
		}
		qualifying = append(qualifying, record)
	}

	if len(qualifying) < s.cfg.MinSamples {
		return noRecommendation(msgKeepLearning)
	}

	vectors := make([][]float64, len(qualifying))
	for i, record := range qualifying {
		vectors[i] = record.EmbeddingVector()
	}

	labels := cluster.DBSCAN(vectors, s.cfg.Cluster)
	best, size := cluster.Largest(labels)
	if best == cluster.Noise {
		return noRecommendation(msgTooVaried)
	}

	members := make([]models.ErrorRecord, 0, size)
	for i, label := range labels {
		if label == best {
			members = append(members, qualifying[i])
		}
	}

	// Records arrive newest-first, so the first member is the most recent
	// failure within the cluster.
	if rec, ok := s.constructGap(ctx, members[0]); ok {
		return rec
	}

	return s.clusterRecommendation(ctx, members)
}

// constructGap checks the latest failure's code against the lesson's
// expected constructs. The first expected construct the student never used
// wins, pointing them back at the lesson's theory.
func (s *recommendationService) constructGap(ctx context.Context, record models.ErrorRecord) (dto.Recommendation, bool) {
	expected := record.ExpectedConstructList()
	if len(expected) == 0 {
		return dto.Recommendation{}, false
	}

	var summary analysis.CodeAnalysis
	if len(record.Analysis) > 0 {
		if err := json.Unmarshal(record.Analysis, &summary); err != nil {
			s.logger.Warn().Err(err).Uint("lesson_id", record.LessonID).Msg("unreadable analysis summary")
			return dto.Recommendation{}, false
		}
	}

	for _, construct := range expected {
		if summary.UsesConstruct(construct) {
			continue
		}

		recommendation := dto.Recommendation{
			Type:             dto.RecommendationTypeCodeAnalysis,
			Message:          fmt.Sprintf("Your solution never uses %q, which this lesson practises. Review the theory and try again.", construct),
			MissingConstruct: construct,
			Lesson:           &dto.RecommendedLesson{ID: record.LessonID},
		}

		if lesson, err := s.core.Lesson(ctx, record.LessonID); err == nil {
			recommendation.Lesson.Title = lesson.Title
			recommendation.Theory = lesson.Content
		} else {
			s.logger.Warn().Err(err).Uint("lesson_id", record.LessonID).Msg("lesson enrichment skipped")
		}

		return recommendation, true
	}

	return dto.Recommendation{}, false
}

func (s *recommendationService) clusterRecommendation(ctx context.Context, members []models.ErrorRecord) dto.Recommendation {
	seen := make(map[uint]struct{})
	var lessons []dto.RecommendedLesson

	for _, record := range members {
		if _, dup := seen[record.LessonID]; dup {
			continue
		}
		seen[record.LessonID] = struct{}{}

		entry := dto.RecommendedLesson{ID: record.LessonID}
		if lesson, err := s.core.Lesson(ctx, record.LessonID); err == nil {
			entry.Title = lesson.Title
			entry.Content = lesson.Content
		} else {
			s.logger.Warn().Err(err).Uint("lesson_id", record.LessonID).Msg("lesson enrichment skipped")
		}
		lessons = append(lessons, entry)
	}

	return dto.Recommendation{
		Type:    dto.RecommendationTypeCluster,
		Message: msgRevisit,
		Lessons: lessons,
	}
}

// completedSet degrades to an empty set when the core service is
// unreachable; a recommendation over stale history beats no response.
func (s *recommendationService) completedSet(ctx context.Context, userID uint) map[uint]struct{} {
	completed := make(map[uint]struct{})

	ids, err := s.core.CompletedLessonIDs(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("completed lessons unavailable, treating as none")
		return completed
	}

	for _, id := range ids {
		completed[id] = struct{}{}
	}
	return completed
}

func (s *recommendationService) cacheKey(userID uint) string {
	return fmt.Sprintf("kodegym:recommendation:%d", userID)
}

func (s *recommendationService) fromCache(ctx context.Context, userID uint) (dto.Recommendation, bool) {
	if s.cache == nil {
		return dto.Recommendation{}, false
	}

	raw, err := s.cache.Get(ctx, s.cacheKey(userID)).Result()
	if err != nil {
		return dto.Recommendation{}, false
	}

	var recommendation dto.Recommendation
	if err := json.Unmarshal([]byte(raw), &recommendation); err != nil {
		return dto.Recommendation{}, false
	}
	return recommendation, true
}

func (s *recommendationService) storeCache(ctx context.Context, userID uint, recommendation dto.Recommendation) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(recommendation)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, s.cacheKey(userID), payload, s.cfg.CacheTTL).Err(); err != nil {
		s.logger.Debug().Err(err).Uint("user_id", userID).Msg("recommendation cache write failed")
	}
}

func noRecommendation(message string) dto.Recommendation {
	return dto.Recommendation{
		Type:    dto.RecommendationTypeNone,
		Message: message,
	}
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/kodegym/kodegym/internal/analysis"
	"github.com/kodegym/kodegym/internal/dto"
	"github.com/kodegym/kodegym/internal/models"
)

type stubCoreClient struct {
	lessons     map[uint]dto.LessonSummaryResponse
	completed   []uint
	lessonErr   error
	completeErr error
	lessonCalls int
}

func (s *stubCoreClient) Lesson(_ context.Context, lessonID uint) (dto.LessonSummaryResponse, error) {
	s.lessonCalls++
	if s.lessonErr != nil {
		return dto.LessonSummaryResponse{}, s.lessonErr
	}
	lesson, ok := s.lessons[lessonID]
	if !ok {
		return dto.LessonSummaryResponse{}, fmt.Errorf("lesson %d not found", lessonID)
	}
	return lesson, nil
}

func (s *stubCoreClient) CompletedLessonIDs(context.Context, uint) ([]uint, error) {
	if s.completeErr != nil {
		return nil, s.completeErr
	}
	return s.completed, nil
}

// errorRecord builds one history entry. Records are served newest-first, so
// tests list them in that order.
func errorRecord(lessonID uint, vector []float64, expected []string, summary analysis.CodeAnalysis) models.ErrorRecord {
	embedding, _ := json.Marshal(vector)
	constructs, _ := json.Marshal(expected)
	analysisJSON, _ := json.Marshal(summary)

	return models.ErrorRecord{
		UserID:             7,
		LessonID:           lessonID,
		Analysis:           datatypes.JSON(analysisJSON),
		Embedding:          datatypes.JSON(embedding),
		ExpectedConstructs: datatypes.JSON(constructs),
	}
}

func newRecommendFixture(records []models.ErrorRecord, core *stubCoreClient, cache *redis.Client) RecommendationService {
	repo := &stubErrorRecordRepo{recent: records}
	return NewRecommendationService(repo, core, cache, RecommendConfig{CacheTTL: time.Minute}, zerolog.Nop())
}

// Two near-identical embeddings form the dominant cluster; the third points
// in an orthogonal direction and stays noise.
var (
	vecLoopsA  = []float64{1, 0}
	vecLoopsB  = []float64{0.9, 0.1}
	vecStrings = []float64{0, 1}
)

func usesReturn() analysis.CodeAnalysis {
	return analysis.CodeAnalysis{NodeKinds: []string{"File", "FuncDecl", "ReturnStmt"}, HasReturn: true}
}

func noReturn() analysis.CodeAnalysis {
	return analysis.CodeAnalysis{NodeKinds: []string{"File", "FuncDecl"}}
}

func TestRecommendTooFewRecordsKeepsLearning(t *testing.T) {
	records := []models.ErrorRecord{errorRecord(1, vecLoopsA, nil, usesReturn())}
	svc := newRecommendFixture(records, &stubCoreClient{}, nil)

	rec := svc.Recommend(context.Background(), 7)
	require.Equal(t, dto.RecommendationTypeNone, rec.Type)
	require.Equal(t, msgKeepLearning, rec.Message)
	require.Empty(t, rec.Lessons)
}

func TestRecommendAllNoiseIsTooVaried(t *testing.T) {
	records := []models.ErrorRecord{
		errorRecord(1, []float64{1, 0, 0}, nil, usesReturn()),
		errorRecord(2, []float64{0, 1, 0}, nil, usesReturn()),
		errorRecord(3, []float64{0, 0, 1}, nil, usesReturn()),
	}
	svc := newRecommendFixture(records, &stubCoreClient{}, nil)

	rec := svc.Recommend(context.Background(), 7)
	require.Equal(t, dto.RecommendationTypeNone, rec.Type)
	require.Equal(t, msgTooVaried, rec.Message)
}

func TestRecommendClusterListsDominantLessons(t *testing.T) {
	core := &stubCoreClient{lessons: map[uint]dto.LessonSummaryResponse{
		2: {ID: 2, Title: "Loops II", Content: "More about loops."},
		5: {ID: 5, Title: "Loops I", Content: "Loops repeat work."},
	}}
	records := []models.ErrorRecord{
		errorRecord(2, vecLoopsA, nil, usesReturn()),
		errorRecord(5, vecLoopsB, nil, usesReturn()),
		errorRecord(9, vecStrings, nil, usesReturn()),
	}
	svc := newRecommendFixture(records, core, nil)

	rec := svc.Recommend(context.Background(), 7)
	require.Equal(t, dto.RecommendationTypeCluster, rec.Type)
	require.Equal(t, msgRevisit, rec.Message)
	require.Len(t, rec.Lessons, 2)
	require.Equal(t, uint(2), rec.Lessons[0].ID)
	require.Equal(t, "Loops II", rec.Lessons[0].Title)
	require.Equal(t, uint(5), rec.Lessons[1].ID)

	for _, lesson := range rec.Lessons {
		require.NotEqual(t, uint(9), lesson.ID, "noise record must not be recommended")
	}
}

func TestRecommendMissingConstructWinsOverCluster(t *testing.T) {
	core := &stubCoreClient{lessons: map[uint]dto.LessonSummaryResponse{
		2: {ID: 2, Title: "Returning values", Content: "Use return to hand back a result."},
	}}
	records := []models.ErrorRecord{
		errorRecord(2, vecLoopsA, []string{"return"}, noReturn()),
		errorRecord(2, vecLoopsB, []string{"return"}, noReturn()),
	}
	svc := newRecommendFixture(records, core, nil)

	rec := svc.Recommend(context.Background(), 7)
	require.Equal(t, dto.RecommendationTypeCodeAnalysis, rec.Type)
	require.Equal(t, "return", rec.MissingConstruct)
	require.Contains(t, rec.Message, `"return"`)
	require.NotNil(t, rec.Lesson)
	require.Equal(t, uint(2), rec.Lesson.ID)
	require.Equal(t, "Returning values", rec.Lesson.Title)
	require.Equal(t, "Use return to hand back a result.", rec.Theory)
}

func TestRecommendConstructPresentFallsBackToCluster(t *testing.T) {
	records := []models.ErrorRecord{
		errorRecord(2, vecLoopsA, []string{"return"}, usesReturn()),
		errorRecord(2, vecLoopsB, []string{"return"}, usesReturn()),
	}
	svc := newRecommendFixture(records, &stubCoreClient{}, nil)

	rec := svc.Recommend(context.Background(), 7)
	require.Equal(t, dto.RecommendationTypeCluster, rec.Type)
}

func TestRecommendFiltersCompletedLessons(t *testing.T) {
	core := &stubCoreClient{completed: []uint{2}}
	records := []models.ErrorRecord{
		errorRecord(2, vecLoopsA, nil, usesReturn()),
		errorRecord(2, vecLoopsB, nil, usesReturn()),
		errorRecord(9, vecStrings, nil, usesReturn()),
	}
	svc := newRecommendFixture(records, core, nil)

	rec := svc.Recommend(context.Background(), 7)
	require.Equal(t, dto.RecommendationTypeNone, rec.Type, "completed lessons leave too few samples")
	require.Equal(t, msgKeepLearning, rec.Message)
}

func TestRecommendDegradesWhenCoreUnavailable(t *testing.T) {
	core := &stubCoreClient{
		lessonErr:   errors.New("core down"),
		completeErr: errors.New("core down"),
	}
	records := []models.ErrorRecord{
		errorRecord(2, vecLoopsA, nil, usesReturn()),
		errorRecord(5, vecLoopsB, nil, usesReturn()),
	}
	svc := newRecommendFixture(records, core, nil)

	rec := svc.Recommend(context.Background(), 7)
	require.Equal(t, dto.RecommendationTypeCluster, rec.Type)
	require.Len(t, rec.Lessons, 2)
	require.Empty(t, rec.Lessons[0].Title, "enrichment is skipped, not fatal")
}

func TestRecommendServesSecondCallFromCache(t *testing.T) {
	server := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: server.Addr()})

	core := &stubCoreClient{lessons: map[uint]dto.LessonSummaryResponse{
		2: {ID: 2, Title: "Loops II"},
		5: {ID: 5, Title: "Loops I"},
	}}
	records := []models.ErrorRecord{
		errorRecord(2, vecLoopsA, nil, usesReturn()),
		errorRecord(5, vecLoopsB, nil, usesReturn()),
	}
	svc := newRecommendFixture(records, core, cache)

	first := svc.Recommend(context.Background(), 7)
	callsAfterFirst := core.lessonCalls

	second := svc.Recommend(context.Background(), 7)
	require.Equal(t, first, second)
	require.Equal(t, callsAfterFirst, core.lessonCalls, "cached response must not hit the core service")

	server.FastForward(2 * time.Minute)
	svc.Recommend(context.Background(), 7)
	require.Greater(t, core.lessonCalls, callsAfterFirst, "expired cache recomputes")
}

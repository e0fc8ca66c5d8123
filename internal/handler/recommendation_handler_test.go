package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kodegym/kodegym/internal/dto"
)

type stubRecommendationService struct {
	recommendation dto.Recommendation
	gotUserID      uint
}

func (s *stubRecommendationService) Recommend(_ context.Context, userID uint) dto.Recommendation {
	s.gotUserID = userID
	return s.recommendation
}

func TestRecommendationEndpoint(t *testing.T) {
	svc := &stubRecommendationService{recommendation: dto.Recommendation{
		Type:    dto.RecommendationTypeCluster,
		Message: "revisit these lessons",
		Lessons: []dto.RecommendedLesson{{ID: 3, Title: "Loops"}},
	}}

	app := fiber.New()
	NewRecommendationHandler(svc, zerolog.Nop()).Register(app)

	req := httptest.NewRequest(http.MethodGet, "/recommendations/7", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body dto.Recommendation
	decodeEnvelope(t, resp, &body)
	require.Equal(t, dto.RecommendationTypeCluster, body.Type)
	require.Len(t, body.Lessons, 1)
	require.Equal(t, uint(7), svc.gotUserID)
}

func TestRecommendationEndpointRejectsBadUserID(t *testing.T) {
	app := fiber.New()
	NewRecommendationHandler(&stubRecommendationService{}, zerolog.Nop()).Register(app)

	req := httptest.NewRequest(http.MethodGet, "/recommendations/not-a-number", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/kodegym/kodegym/internal/service"
	"github.com/kodegym/kodegym/internal/utils"
)

// RecommendationHandler serves the AI service's recommendation endpoint.
type RecommendationHandler struct {
	service service.RecommendationService
	logger  zerolog.Logger
}

// NewRecommendationHandler constructs the handler instance.
func NewRecommendationHandler(svc service.RecommendationService, logger zerolog.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		service: svc,
		logger:  logger.With().Str("component", "recommendation_handler").Logger(),
	}
}

// Register wires the recommendation routes.
func (h *RecommendationHandler) Register(router fiber.Router) {
	router.Get("/recommendations/:user_id", h.recommend)
}

func (h *RecommendationHandler) recommend(c *fiber.Ctx) error {
	userID, err := parseUintParam(c, "user_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	recommendation := h.service.Recommend(c.UserContext(), userID)
	return utils.SendSuccess(c, "recommendation computed", recommendation)
}

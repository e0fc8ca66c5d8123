package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/kodegym/kodegym/internal/dto"
	"github.com/kodegym/kodegym/internal/service"
	"github.com/kodegym/kodegym/internal/utils"
)

// SubmissionHandler serves the submission endpoints of the core service.
type SubmissionHandler struct {
	service   service.GradingService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSubmissionHandler constructs the handler instance.
func NewSubmissionHandler(svc service.GradingService, validate *validator.Validate, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service:   svc,
		validator: validate,
		logger:    logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register wires the submission routes. The router must already carry the
// JWT middleware.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("/lessons/:lesson_id/submit", h.submit)
	router.Get("/submissions/:id", h.status)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	userID, ok := userIDFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	lessonID, err := parseUintParam(c, "lesson_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid lesson id")
	}

	var req dto.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "code is required")
	}

	submissionID, err := h.service.Submit(c.UserContext(), userID, lessonID, req.Code)
	if err != nil {
		if errors.Is(err, service.ErrLessonNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "lesson not found")
		}
		h.logger.Error().Err(err).Uint("lesson_id", lessonID).Msg("failed to enqueue submission")
		return utils.SendError(c, fiber.StatusServiceUnavailable, "failed to accept submission")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "submission accepted", dto.SubmitResponse{
		SubmissionID: submissionID,
		Status:       "pending",
	})
}

func (h *SubmissionHandler) status(c *fiber.Ctx) error {
	userID, ok := userIDFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	submission, err := h.service.Get(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubmissionNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "submission not found")
		case errors.Is(err, service.ErrSubmissionForbidden):
			return utils.SendError(c, fiber.StatusForbidden, "submission belongs to another user")
		default:
			h.logger.Error().Err(err).Str("submission_id", c.Params("id")).Msg("failed to load submission")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to load submission")
		}
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

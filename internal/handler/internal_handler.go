package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kodegym/kodegym/internal/dto"
	"github.com/kodegym/kodegym/internal/repository"
	"github.com/kodegym/kodegym/internal/utils"
)

// InternalHandler serves the service-to-service lookups used by the
// recommendation engine. These routes are not exposed publicly.
type InternalHandler struct {
	lessons  repository.LessonRepository
	progress repository.ProgressRepository
	logger   zerolog.Logger
}

// NewInternalHandler constructs the handler instance.
func NewInternalHandler(lessons repository.LessonRepository, progress repository.ProgressRepository, logger zerolog.Logger) *InternalHandler {
	return &InternalHandler{
		lessons:  lessons,
		progress: progress,
		logger:   logger.With().Str("component", "internal_handler").Logger(),
	}
}

// Register wires the internal lookup routes.
func (h *InternalHandler) Register(router fiber.Router) {
	router.Get("/lessons/:id", h.lesson)
	router.Get("/users/:id/completed-lessons", h.completedLessons)
}

func (h *InternalHandler) lesson(c *fiber.Ctx) error {
	lessonID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid lesson id")
	}

	lesson, err := h.lessons.GetByID(c.UserContext(), lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "lesson not found")
		}
		h.logger.Error().Err(err).Uint("lesson_id", lessonID).Msg("failed to load lesson")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load lesson")
	}

	return utils.SendSuccess(c, "lesson retrieved", dto.NewLessonSummaryResponse(lesson))
}

func (h *InternalHandler) completedLessons(c *fiber.Ctx) error {
	userID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	lessonIDs, err := h.progress.CompletedLessonIDs(c.UserContext(), userID)
	if err != nil {
		h.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to load completed lessons")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load completed lessons")
	}

	return utils.SendSuccess(c, "completed lessons retrieved", dto.CompletedLessonsResponse{
		UserID:    userID,
		LessonIDs: lessonIDs,
	})
}

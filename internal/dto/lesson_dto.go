package dto

import "github.com/kodegym/kodegym/internal/models"

// LessonSummaryResponse is served by the internal lesson lookup endpoint and
// consumed by the recommendation service.
type LessonSummaryResponse struct {
	ID                 uint     `json:"id"`
	Title              string   `json:"title"`
	Content            string   `json:"content"`
	LessonType         string   `json:"lesson_type"`
	TestCode           string   `json:"test_code"`
	ExpectedConstructs []string `json:"expected_constructs"`
}

// NewLessonSummaryResponse converts the model into its API shape.
func NewLessonSummaryResponse(lesson models.Lesson) LessonSummaryResponse {
	return LessonSummaryResponse{
		ID:                 lesson.ID,
		Title:              lesson.Title,
		Content:            lesson.Content,
		LessonType:         lesson.LessonType,
		TestCode:           lesson.TestCode,
		ExpectedConstructs: lesson.ExpectedConstructList(),
	}
}

// CompletedLessonsResponse lists the lesson ids a user has finished.
type CompletedLessonsResponse struct {
	UserID    uint   `json:"user_id"`
	LessonIDs []uint `json:"lesson_ids"`
}

package dto

import (
	"time"

	"github.com/kodegym/kodegym/internal/models"
)

// SubmitRequest is the body of POST /lessons/:lesson_id/submit.
type SubmitRequest struct {
	Code string `json:"code" validate:"required"`
}

// SubmitResponse acknowledges an enqueued submission. Callers poll the
// status endpoint until a terminal state appears.
type SubmitResponse struct {
	SubmissionID string `json:"submission_id"`
	Status       string `json:"status"`
}

// SubmissionResponse is the polled view of a submission.
type SubmissionResponse struct {
	SubmissionID string    `json:"submission_id"`
	LessonID     uint      `json:"lesson_id"`
	Status       string    `json:"status"`
	Output       string    `json:"output"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewSubmissionResponse converts the model into its API shape.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	return SubmissionResponse{
		SubmissionID: submission.ID,
		LessonID:     submission.LessonID,
		Status:       submission.Status,
		Output:       submission.Output,
		CreatedAt:    submission.CreatedAt,
	}
}

package models

import "time"

// Submission states. Pending submissions transition exactly once to a
// terminal state when the grading result is consumed.
const (
	SubmissionStatusPending = "pending"
	SubmissionStatusSuccess = "success"
	SubmissionStatusError   = "error"
)

// Submission represents one attempted solve of one lesson by one user.
type Submission struct {
	ID        string    `gorm:"primaryKey;size:36" json:"submission_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	LessonID  uint      `gorm:"not null;index" json:"lesson_id"`
	Code      string    `gorm:"type:text" json:"code"`
	TestCode  string    `gorm:"type:text" json:"test_code"`
	Status    string    `gorm:"size:16;not null" json:"status"`
	Output    string    `gorm:"type:text" json:"output"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal reports whether the submission has reached a final verdict.
func (s Submission) IsTerminal() bool {
	return s.Status == SubmissionStatusSuccess || s.Status == SubmissionStatusError
}

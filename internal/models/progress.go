package models

import "time"

// UserLessonProgress marks a lesson as completed by a user. The unique index
// on (user_id, lesson_id) makes re-completion idempotent.
type UserLessonProgress struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_user_lesson" json:"user_id"`
	LessonID    uint      `gorm:"not null;uniqueIndex:idx_user_lesson" json:"lesson_id"`
	CompletedAt time.Time `gorm:"autoCreateTime" json:"completed_at"`
}

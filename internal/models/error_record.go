package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// ErrorRecord is an append-only log entry capturing the full context of one
// graded failure. Records are never updated or deleted; the recommendation
// engine reads them newest-first within a fixed window.
type ErrorRecord struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	UserID             uint           `gorm:"not null;index" json:"user_id"`
	LessonID           uint           `gorm:"not null;index" json:"lesson_id"`
	Analysis           datatypes.JSON `json:"analysis"`
	LessonContent      string         `gorm:"type:text" json:"lesson_content"`
	Embedding          datatypes.JSON `gorm:"not null" json:"embedding"`
	ExpectedConstructs datatypes.JSON `json:"expected_constructs"`
	TestOutput         string         `gorm:"type:text" json:"test_output"`
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`
}

// EmbeddingVector decodes the stored lesson-content embedding.
func (r ErrorRecord) EmbeddingVector() []float64 {
	var vector []float64
	if err := json.Unmarshal(r.Embedding, &vector); err != nil {
		return nil
	}
	return vector
}

// ExpectedConstructList decodes the construct names the lesson expects.
func (r ErrorRecord) ExpectedConstructList() []string {
	if len(r.ExpectedConstructs) == 0 {
		return nil
	}

	var constructs []string
	if err := json.Unmarshal(r.ExpectedConstructs, &constructs); err != nil {
		return nil
	}
	return constructs
}

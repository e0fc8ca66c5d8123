package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Lesson is a catalog entry describing one exercise or theory page. The
// schema mirrors the authoring service's table, which this pipeline shares
// but does not own: LessonType, StarterCode and ModuleID are written by the
// authoring side and carried here so migrations stay compatible. Grading
// reads Content (embedding input), TestCode (executor input) and
// ExpectedConstructs (construct-gap check).
type Lesson struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Title              string         `gorm:"size:255;not null" json:"title"`
	Content            string         `gorm:"type:text" json:"content"`
	LessonType         string         `gorm:"size:32;default:text" json:"lesson_type"`
	TestCode           string         `gorm:"type:text" json:"test_code"`
	ExpectedConstructs datatypes.JSON `json:"expected_constructs"`
	StarterCode        string         `gorm:"type:text" json:"starter_code"`
	ModuleID           uint           `json:"module_id"`
}

// ExpectedConstructList decodes the stored construct names. A missing or
// malformed column yields an empty list rather than an error.
func (l Lesson) ExpectedConstructList() []string {
	if len(l.ExpectedConstructs) == 0 {
		return nil
	}

	var constructs []string
	if err := json.Unmarshal(l.ExpectedConstructs, &constructs); err != nil {
		return nil
	}
	return constructs
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kodegym/kodegym/internal/models"
)

// LessonRepository exposes read access to the lesson catalog. Lesson
// authoring lives outside this service; the grading pipeline only reads.
type LessonRepository interface {
	GetByID(ctx context.Context, id uint) (models.Lesson, error)
}

// NewLessonRepository constructs a lesson repository.
func NewLessonRepository(db *gorm.DB) LessonRepository {
	return &lessonRepository{db: db}
}

type lessonRepository struct {
	db *gorm.DB
}

func (r *lessonRepository) GetByID(ctx context.Context, id uint) (models.Lesson, error) {
	var lesson models.Lesson
	if err := r.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		return models.Lesson{}, err
	}
	return lesson, nil
}

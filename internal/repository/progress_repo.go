package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kodegym/kodegym/internal/models"
)

// ProgressRepository tracks lesson completion markers.
type ProgressRepository interface {
	// MarkCompleted records the (user, lesson) pair. Re-completion is a
	// no-op, never an error.
	MarkCompleted(ctx context.Context, userID, lessonID uint) error
	CompletedLessonIDs(ctx context.Context, userID uint) ([]uint, error)
}

// NewProgressRepository constructs a progress repository.
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

type progressRepository struct {
	db *gorm.DB
}

func (r *progressRepository) MarkCompleted(ctx context.Context, userID, lessonID uint) error {
	marker := models.UserLessonProgress{UserID: userID, LessonID: lessonID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
			DoNothing: true,
		}).
		Create(&marker).Error
}

func (r *progressRepository) CompletedLessonIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.UserLessonProgress{}).
		Where("user_id = ?", userID).
		Pluck("lesson_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

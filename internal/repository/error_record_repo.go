package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kodegym/kodegym/internal/models"
)

// ErrorRecordRepository persists the append-only failure log that feeds the
// recommendation engine.
type ErrorRecordRepository interface {
	Append(ctx context.Context, record *models.ErrorRecord) error
	// RecentByUser returns the newest records first, capped at limit.
	RecentByUser(ctx context.Context, userID uint, limit int) ([]models.ErrorRecord, error)
}

// NewErrorRecordRepository constructs an error record repository.
func NewErrorRecordRepository(db *gorm.DB) ErrorRecordRepository {
	return &errorRecordRepository{db: db}
}

type errorRecordRepository struct {
	db *gorm.DB
}

func (r *errorRecordRepository) Append(ctx context.Context, record *models.ErrorRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *errorRecordRepository) RecentByUser(ctx context.Context, userID uint, limit int) ([]models.ErrorRecord, error) {
	var records []models.ErrorRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

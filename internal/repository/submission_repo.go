package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kodegym/kodegym/internal/models"
)

// SubmissionRepository exposes persistence helpers for submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id string) (models.Submission, error)
	// ApplyResult upserts the terminal state for a submission id. A result
	// for an unknown id creates the row; a result for an already-terminal
	// submission leaves it untouched. Returns the stored submission and
	// whether this call performed the pending→terminal transition.
	ApplyResult(ctx context.Context, id string, status string, output string) (models.Submission, bool, error)
}

// NewSubmissionRepository constructs a submission repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

type submissionRepository struct {
	db *gorm.DB
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, "id = ?", id).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) ApplyResult(ctx context.Context, id string, status string, output string) (models.Submission, bool, error) {
	var (
		stored  models.Submission
		applied bool
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&stored, "id = ?", id).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Tolerate out-of-order delivery: a result may arrive before
			// the pending row is visible. Upsert-create instead of reject.
			stored = models.Submission{ID: id, Status: status, Output: output}
			applied = true
			return tx.Create(&stored).Error
		case err != nil:
			return err
		}

		if stored.IsTerminal() {
			return nil
		}

		stored.Status = status
		stored.Output = output
		applied = true
		return tx.Save(&stored).Error
	})
	if err != nil {
		return models.Submission{}, false, err
	}

	return stored, applied, nil
}

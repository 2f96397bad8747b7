package repository

import (
	"context"
	"time"

	"balcao/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PrintJobRepository interface {
	Create(ctx context.Context, j *model.PrintJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error)
	Update(ctx context.Context, j *model.PrintJob) error
	// FindPendingRetry returns pending jobs whose next retry is due.
	FindPendingRetry(ctx context.Context, now time.Time, limit int) ([]model.PrintJob, error)
}

type printJobRepo struct{ db *gorm.DB }

func NewPrintJobRepository(db *gorm.DB) PrintJobRepository { return &printJobRepo{db: db} }

func (r *printJobRepo) Create(ctx context.Context, j *model.PrintJob) error {
	return r.db.WithContext(ctx).Create(j).Error
}

func (r *printJobRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	var j model.PrintJob
	err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error
	return &j, err
}

func (r *printJobRepo) Update(ctx context.Context, j *model.PrintJob) error {
	return r.db.WithContext(ctx).Save(j).Error
}

func (r *printJobRepo) FindPendingRetry(ctx context.Context, now time.Time, limit int) ([]model.PrintJob, error) {
	var jobs []model.PrintJob
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", model.PrintPending, now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

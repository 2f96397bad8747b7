package repository

import (
	"context"
	"time"

	"balcao/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CashRegisterRepository interface {
	Create(ctx context.Context, c *model.CashRegister) error
	FindOpen(ctx context.Context, storeID uuid.UUID) (*model.CashRegister, error)
	Close(ctx context.Context, id uuid.UUID, amount decimal.Decimal, notes *string, at time.Time) error
}

type cashRegisterRepo struct{ db *gorm.DB }

func NewCashRegisterRepository(db *gorm.DB) CashRegisterRepository {
	return &cashRegisterRepo{db: db}
}

func (r *cashRegisterRepo) Create(ctx context.Context, c *model.CashRegister) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cashRegisterRepo) FindOpen(ctx context.Context, storeID uuid.UUID) (*model.CashRegister, error) {
	var c model.CashRegister
	err := r.db.WithContext(ctx).Where("store_id = ? AND closed_at IS NULL", storeID).First(&c).Error
	return &c, err
}

func (r *cashRegisterRepo) Close(ctx context.Context, id uuid.UUID, amount decimal.Decimal, notes *string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.CashRegister{}).
		Where("id = ? AND closed_at IS NULL", id).
		Updates(map[string]any{"closed_at": at, "closing_amount": amount, "notes": notes})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

package repository

import (
	"context"

	"balcao/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoyaltyRepository is append-only: ledger rows are never updated or deleted.
type LoyaltyRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, t *model.LoyaltyTransaction) error
	ListByOrderTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]model.LoyaltyTransaction, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.LoyaltyTransaction, error)
	SumByCustomer(ctx context.Context, customerID uuid.UUID) (int, error)
}

type loyaltyRepo struct{ db *gorm.DB }

func NewLoyaltyRepository(db *gorm.DB) LoyaltyRepository { return &loyaltyRepo{db: db} }

func (r *loyaltyRepo) CreateTx(ctx context.Context, tx *gorm.DB, t *model.LoyaltyTransaction) error {
	return conn(ctx, r.db, tx).Create(t).Error
}

func (r *loyaltyRepo) ListByOrderTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]model.LoyaltyTransaction, error) {
	var out []model.LoyaltyTransaction
	err := conn(ctx, r.db, tx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *loyaltyRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.LoyaltyTransaction, error) {
	var out []model.LoyaltyTransaction
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *loyaltyRepo) SumByCustomer(ctx context.Context, customerID uuid.UUID) (int, error) {
	var sum int
	err := r.db.WithContext(ctx).Model(&model.LoyaltyTransaction{}).
		Where("customer_id = ?", customerID).
		Select("COALESCE(SUM(points), 0)").Scan(&sum).Error
	return sum, err
}

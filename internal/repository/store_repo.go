package repository

import (
	"context"

	"balcao/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StoreRepository interface {
	Create(ctx context.Context, s *model.Store) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Store, error)
	// StatusConfig returns the store's active flow rows ordered by display order.
	StatusConfig(ctx context.Context, storeID uuid.UUID) ([]model.OrderStatusConfig, error)
	ReplaceStatusConfig(ctx context.Context, storeID uuid.UUID, rows []model.OrderStatusConfig) error
	OperatingHours(ctx context.Context, storeID uuid.UUID) ([]model.OperatingHours, error)
	SpecialDays(ctx context.Context, storeID uuid.UUID) ([]model.SpecialDay, error)
	SaveOperatingHours(ctx context.Context, h *model.OperatingHours) error
	SaveSpecialDay(ctx context.Context, d *model.SpecialDay) error
}

type storeRepo struct{ db *gorm.DB }

func NewStoreRepository(db *gorm.DB) StoreRepository { return &storeRepo{db: db} }

func (r *storeRepo) Create(ctx context.Context, s *model.Store) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *storeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	var s model.Store
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *storeRepo) StatusConfig(ctx context.Context, storeID uuid.UUID) ([]model.OrderStatusConfig, error) {
	var rows []model.OrderStatusConfig
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND is_active = true", storeID).
		Order("display_order ASC").Find(&rows).Error
	return rows, err
}

func (r *storeRepo) ReplaceStatusConfig(ctx context.Context, storeID uuid.UUID, rows []model.OrderStatusConfig) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("store_id = ?", storeID).Delete(&model.OrderStatusConfig{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func (r *storeRepo) OperatingHours(ctx context.Context, storeID uuid.UUID) ([]model.OperatingHours, error) {
	var rows []model.OperatingHours
	err := r.db.WithContext(ctx).Where("store_id = ?", storeID).Order("day_of_week ASC").Find(&rows).Error
	return rows, err
}

func (r *storeRepo) SpecialDays(ctx context.Context, storeID uuid.UUID) ([]model.SpecialDay, error) {
	var rows []model.SpecialDay
	err := r.db.WithContext(ctx).Where("store_id = ? AND date >= CURRENT_DATE", storeID).Order("date ASC").Find(&rows).Error
	return rows, err
}

func (r *storeRepo) SaveOperatingHours(ctx context.Context, h *model.OperatingHours) error {
	return r.db.WithContext(ctx).Save(h).Error
}

func (r *storeRepo) SaveSpecialDay(ctx context.Context, d *model.SpecialDay) error {
	return r.db.WithContext(ctx).Save(d).Error
}

package repository

import (
	"context"
	"time"

	"balcao/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderRepository interface {
	// Create inserts the order and its payment parts. Items are written
	// separately with CreateItemsTx.
	Create(ctx context.Context, tx *gorm.DB, o *model.Order) error
	CreateItemsTx(ctx context.Context, tx *gorm.DB, items []model.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// ListByStatuses returns the store's orders in any of statuses created at or
	// after since, newest first.
	ListByStatuses(ctx context.Context, storeID uuid.UUID, statuses []string, since time.Time) ([]model.Order, error)
	// UpdateStatusTx moves the order from one status to another, failing with
	// ErrStaleStatus when the order is no longer in from.
	UpdateStatusTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to string) error
	// SettleReservation rewrites payment method and status in one statement and
	// replaces the deferred payment part with the settling method.
	SettleReservation(ctx context.Context, id uuid.UUID, s Settlement) error
	DB() *gorm.DB
}

// Settlement completes a deferred-payment order.
type Settlement struct {
	From, To      string // status transition
	Deferred      string // payment part method being replaced
	Method, Label string // settling method key and the label stored on the order
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) DB() *gorm.DB { return r.db }

func (r *orderRepo) Create(ctx context.Context, tx *gorm.DB, o *model.Order) error {
	return conn(ctx, r.db, tx).Omit("Items", "Customer").Create(o).Error
}

func (r *orderRepo) CreateItemsTx(ctx context.Context, tx *gorm.DB, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return conn(ctx, r.db, tx).Create(&items).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Payments").Preload("Customer").
		First(&o, "id = ?", id).Error
	return &o, err
}

func (r *orderRepo) ListByStatuses(ctx context.Context, storeID uuid.UUID, statuses []string, since time.Time) ([]model.Order, error) {
	var orders []model.Order
	q := r.db.WithContext(ctx).Where("store_id = ? AND status IN ?", storeID, statuses)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	err := q.Preload("Items").Preload("Customer").
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) UpdateStatusTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to string) error {
	res := conn(ctx, r.db, tx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *orderRepo) SettleReservation(ctx context.Context, id uuid.UUID, s Settlement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", id, s.From).
			Updates(map[string]any{
				"payment_method": s.Label,
				"status":         s.To,
				"updated_at":     time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleStatus
		}
		var o model.Order
		if err := tx.Select("id", "total").First(&o, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ? AND method = ?", id, s.Deferred).Delete(&model.OrderPayment{}).Error; err != nil {
			return err
		}
		amount := o.Total
		if amount.IsNegative() {
			amount = decimal.Zero
		}
		return tx.Create(&model.OrderPayment{OrderID: id, Method: s.Method, Amount: amount}).Error
	})
}

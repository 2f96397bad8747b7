package repository

import (
	"context"

	"balcao/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	FindByPhone(ctx context.Context, storeID uuid.UUID, phone string) (*model.Customer, error)
	Create(ctx context.Context, c *model.Customer) error
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]model.Customer, error)
	// AddPointsTx credits delta points and returns the new balance.
	AddPointsTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) (int, error)
	// DeductPointsTx debits n points only when the balance covers them, else
	// ErrInsufficientPoints.
	DeductPointsTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, n int) (int, error)
	CreateAddressTx(ctx context.Context, tx *gorm.DB, a *model.CustomerAddress) error
	ListAddresses(ctx context.Context, customerID uuid.UUID) ([]model.CustomerAddress, error)
	DB() *gorm.DB
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepo{db: db} }

func (r *customerRepo) DB() *gorm.DB { return r.db }

func (r *customerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *customerRepo) FindByPhone(ctx context.Context, storeID uuid.UUID, phone string) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).Where("store_id = ? AND phone = ?", storeID, phone).First(&c).Error
	return &c, err
}

func (r *customerRepo) Create(ctx context.Context, c *model.Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *customerRepo) ListByStore(ctx context.Context, storeID uuid.UUID) ([]model.Customer, error) {
	var out []model.Customer
	err := r.db.WithContext(ctx).Where("store_id = ?", storeID).Order("name").Find(&out).Error
	return out, err
}

type pointsRow struct {
	Points int
}

func (r *customerRepo) AddPointsTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) (int, error) {
	var rows []pointsRow
	err := conn(ctx, r.db, tx).
		Raw("UPDATE customers SET points = points + ?, updated_at = NOW() WHERE id = ? RETURNING points", delta, id).
		Scan(&rows).Error
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return rows[0].Points, nil
}

func (r *customerRepo) DeductPointsTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, n int) (int, error) {
	var rows []pointsRow
	err := conn(ctx, r.db, tx).
		Raw("UPDATE customers SET points = points - ?, updated_at = NOW() WHERE id = ? AND points >= ? RETURNING points", n, id, n).
		Scan(&rows).Error
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, ErrInsufficientPoints
	}
	return rows[0].Points, nil
}

func (r *customerRepo) CreateAddressTx(ctx context.Context, tx *gorm.DB, a *model.CustomerAddress) error {
	return conn(ctx, r.db, tx).Create(a).Error
}

func (r *customerRepo) ListAddresses(ctx context.Context, customerID uuid.UUID) ([]model.CustomerAddress, error) {
	var out []model.CustomerAddress
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).
		Order("is_default DESC, created_at DESC").Find(&out).Error
	return out, err
}

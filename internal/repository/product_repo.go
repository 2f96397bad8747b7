package repository

import (
	"context"
	"fmt"

	"balcao/internal/dto"
	"balcao/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockRef points at the row holding stock for a cart line: the variation when
// VariationID is set, the product otherwise.
type StockRef struct {
	ProductID   uuid.UUID
	VariationID *uuid.UUID
}

func (s StockRef) String() string {
	if s.VariationID != nil {
		return "variation:" + s.VariationID.String()
	}
	return "product:" + s.ProductID.String()
}

func (s StockRef) table() (string, uuid.UUID) {
	if s.VariationID != nil {
		return "product_variations", *s.VariationID
	}
	return "products", s.ProductID
}

// ProductRepository is the catalog and stock persistence contract. Every *Tx
// method runs on tx when given and on the repository's connection otherwise.
type ProductRepository interface {
	CreateCategory(ctx context.Context, c *model.Category) error
	Create(ctx context.Context, p *model.Product) error
	CreateVariation(ctx context.Context, v *model.Variation) error
	CreatePackagingLink(ctx context.Context, l *model.ProductPackagingLink) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindVariation(ctx context.Context, id uuid.UUID) (*model.Variation, error)
	List(ctx context.Context, storeID uuid.UUID, filter dto.ProductFilter) ([]model.Product, error)
	PackagingLinks(ctx context.Context, storeID, productID uuid.UUID) ([]model.ProductPackagingLink, error)

	// StockTx reads current stock; lock takes a row lock (SELECT ... FOR UPDATE).
	StockTx(ctx context.Context, tx *gorm.DB, ref StockRef, lock bool) (int, error)
	// DecrementStockTx subtracts qty only when stock >= qty, else ErrInsufficientStock.
	DecrementStockTx(ctx context.Context, tx *gorm.DB, ref StockRef, qty int) (int, error)
	// ClampDecrementStockTx subtracts qty flooring at zero.
	ClampDecrementStockTx(ctx context.Context, tx *gorm.DB, ref StockRef, qty int) (int, error)
	// AdjustStockTx adds delta unconditionally; the result may be negative.
	AdjustStockTx(ctx context.Context, tx *gorm.DB, ref StockRef, delta int) (int, error)

	CreateMovementTx(ctx context.Context, tx *gorm.DB, m *model.StockMovement) error
	CreateCompositeTx(ctx context.Context, tx *gorm.DB, c *model.CompositeItemTransaction) error

	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) CreateCategory(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) CreateVariation(ctx context.Context, v *model.Variation) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *productRepo) CreatePackagingLink(ctx context.Context, l *model.ProductPackagingLink) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Preload("Variations", "active = true").
		First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productRepo) FindVariation(ctx context.Context, id uuid.UUID) (*model.Variation, error) {
	var v model.Variation
	err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error
	return &v, err
}

func (r *productRepo) List(ctx context.Context, storeID uuid.UUID, filter dto.ProductFilter) ([]model.Product, error) {
	var products []model.Product
	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("store_id = ?", storeID)
	if !filter.IncludeInactive {
		q = q.Where("active = true")
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.RedeemableOnly {
		q = q.Where("can_be_redeemed_with_points = true")
	}
	err := q.Preload("Variations", "active = true").Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) PackagingLinks(ctx context.Context, storeID, productID uuid.UUID) ([]model.ProductPackagingLink, error) {
	var links []model.ProductPackagingLink
	err := r.db.WithContext(ctx).
		Preload("Packaging").
		Where("store_id = ? AND product_id = ?", storeID, productID).
		Find(&links).Error
	return links, err
}

type stockRow struct {
	StockQuantity int
}

func (r *productRepo) StockTx(ctx context.Context, tx *gorm.DB, ref StockRef, lock bool) (int, error) {
	table, id := ref.table()
	q := conn(ctx, r.db, tx).Table(table).Select("stock_quantity").Where("id = ?", id)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row stockRow
	if err := q.Take(&row).Error; err != nil {
		return 0, err
	}
	return row.StockQuantity, nil
}

// update runs one UPDATE ... RETURNING on the stock row. ok is false when the
// guard matched no row.
func (r *productRepo) update(ctx context.Context, tx *gorm.DB, ref StockRef, set string, n int, guard string) (after int, ok bool, err error) {
	table, id := ref.table()
	sql := fmt.Sprintf("UPDATE %s SET stock_quantity = %s, updated_at = NOW() WHERE id = ?%s RETURNING stock_quantity", table, set, guard)
	args := []any{n, id}
	if guard != "" {
		args = append(args, n)
	}
	var rows []stockRow
	if err := conn(ctx, r.db, tx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return 0, false, err
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	return rows[0].StockQuantity, true, nil
}

func (r *productRepo) DecrementStockTx(ctx context.Context, tx *gorm.DB, ref StockRef, qty int) (int, error) {
	after, ok, err := r.update(ctx, tx, ref, "stock_quantity - ?", qty, " AND stock_quantity >= ?")
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%s: %w", ref, ErrInsufficientStock)
	}
	return after, nil
}

func (r *productRepo) ClampDecrementStockTx(ctx context.Context, tx *gorm.DB, ref StockRef, qty int) (int, error) {
	after, ok, err := r.update(ctx, tx, ref, "GREATEST(stock_quantity - ?, 0)", qty, "")
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return after, nil
}

func (r *productRepo) AdjustStockTx(ctx context.Context, tx *gorm.DB, ref StockRef, delta int) (int, error) {
	after, ok, err := r.update(ctx, tx, ref, "stock_quantity + ?", delta, "")
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return after, nil
}

func (r *productRepo) CreateMovementTx(ctx context.Context, tx *gorm.DB, m *model.StockMovement) error {
	return conn(ctx, r.db, tx).Create(m).Error
}

func (r *productRepo) CreateCompositeTx(ctx context.Context, tx *gorm.DB, c *model.CompositeItemTransaction) error {
	return conn(ctx, r.db, tx).Create(c).Error
}

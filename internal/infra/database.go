package infra

import (
	"fmt"

	"balcao/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection backed by pgx and brings the schema up
// to date.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Models lists every table the service owns, in dependency order.
func Models() []any {
	return []any{
		&model.Store{},
		&model.OrderStatusConfig{},
		&model.OperatingHours{},
		&model.SpecialDay{},
		&model.Category{},
		&model.Product{},
		&model.Variation{},
		&model.ProductPackagingLink{},
		&model.Customer{},
		&model.CustomerAddress{},
		&model.CashRegister{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderPayment{},
		&model.LoyaltyTransaction{},
		&model.CompositeItemTransaction{},
		&model.StockMovement{},
		&model.PrintJob{},
	}
}

// RunMigrations runs AutoMigrate and then the idempotent patches GORM tags
// cannot express.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches creates partial indexes. Each statement is safe to re-run.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// one open cash register per store
		{"uniq open cash register", `
CREATE UNIQUE INDEX IF NOT EXISTS idx_cash_register_open
    ON cash_register (store_id) WHERE closed_at IS NULL`},
		// at most one reversal and one earn row per order
		{"uniq loyalty order reason", `
CREATE UNIQUE INDEX IF NOT EXISTS idx_loyalty_order_reason
    ON loyalty_transactions (order_id, reason)
    WHERE reason IN ('redemption_reversal', 'order_earn')`},
		// retry cron scan
		{"print jobs pending retry", `
CREATE INDEX IF NOT EXISTS idx_print_jobs_pending_retry
    ON print_jobs (next_retry_at)
    WHERE status = 'pending' AND next_retry_at IS NOT NULL`},
		{"stock non-negative products", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_products_stock_non_negative') THEN
    ALTER TABLE products ADD CONSTRAINT chk_products_stock_non_negative CHECK (stock_quantity >= 0);
  END IF;
END $$`},
		{"customer points non-negative", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_customers_points_non_negative') THEN
    ALTER TABLE customers ADD CONSTRAINT chk_customers_points_non_negative CHECK (points >= 0);
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}

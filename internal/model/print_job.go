package model

import (
	"time"

	"github.com/google/uuid"
)

// PrintJob tracks one receipt print for an order.
// Status: "pending" | "printed" | "failed"
type PrintJob struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID  uuid.UUID `gorm:"type:uuid;index;not null"`
	OrderID  uuid.UUID `gorm:"type:uuid;index;not null"`
	DeviceID string    `gorm:"type:varchar(64)"`
	Status   string    `gorm:"type:varchar(20);not null;default:'pending'"`
	// PDFPath is relative to RECEIPT_STORAGE_PATH
	PDFPath *string `gorm:"column:pdf_path"`
	// Retry fields, used by the retry cron to re-send failed prints
	RetryCount  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at"`
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const (
	PrintPending = "pending"
	PrintPrinted = "printed"
	PrintFailed  = "failed"
)

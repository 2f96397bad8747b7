package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashRegister is a cash register session. ClosedAt nil means open; a store
// has at most one open session.
type CashRegister struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID       uuid.UUID        `gorm:"type:uuid;index;not null"`
	OpenedBy      *uuid.UUID       `gorm:"type:uuid"`
	OpeningAmount decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	ClosingAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Notes         *string
	OpenedAt      time.Time
	ClosedAt      *time.Time
}

func (CashRegister) TableName() string { return "cash_register" }

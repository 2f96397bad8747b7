package model

import (
	"time"

	"github.com/google/uuid"
)

// Customer is identified by phone within a store. Points is only changed
// together with a LoyaltyTransaction row.
type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_customer_store_phone"`
	Phone     string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_customer_store_phone"`
	Name      string    `gorm:"not null"`
	Points    int       `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CustomerAddress struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CustomerID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Address      string    `gorm:"not null"`
	Number       *string
	Neighborhood string `gorm:"not null"`
	Reference    *string
	CEP          *string `gorm:"column:cep"`
	IsDefault    bool    `gorm:"not null;default:false"`
	CreatedAt    time.Time
}

// Loyalty transaction types and reasons.
const (
	LoyaltyEarn   = "earn"
	LoyaltyRedeem = "redeem"

	ReasonRedemption         = "redemption"
	ReasonRedemptionReversal = "redemption_reversal"
	ReasonOrderEarn          = "order_earn"
)

// LoyaltyTransaction is an append-only ledger row. Points is signed.
type LoyaltyTransaction struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID     uuid.UUID  `gorm:"type:uuid;index;not null"`
	CustomerID  uuid.UUID  `gorm:"type:uuid;index;not null"`
	OrderID     *uuid.UUID `gorm:"type:uuid;index"`
	Points      int        `gorm:"not null"`
	Type        string     `gorm:"column:transaction_type;type:varchar(10);not null"`
	Reason      string     `gorm:"type:varchar(30);not null"`
	Description string     `gorm:"not null"`
	CreatedAt   time.Time
}

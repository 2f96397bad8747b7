package model

import (
	"time"

	"github.com/google/uuid"
)

// Stock movement kinds.
const (
	MovementSale                 = "sale"
	MovementCompositeConsumption = "composite_consumption"
	MovementCompositeYield       = "composite_yield"
	MovementPackaging            = "packaging"
	MovementAdjustment           = "adjustment"
)

// StockMovement records one stock change of a product or variation.
// Quantity is positive for incoming stock, negative for outgoing.
type StockMovement struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID     uuid.UUID  `gorm:"type:uuid;index;not null"`
	ProductID   uuid.UUID  `gorm:"type:uuid;index;not null"`
	VariationID *uuid.UUID `gorm:"type:uuid;index"`
	Kind        string     `gorm:"type:varchar(30);not null"`
	Quantity    int        `gorm:"not null"`
	StockBefore int        `gorm:"not null"`
	StockAfter  int        `gorm:"not null"`
	Reason      string
	OrderID     *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt   time.Time
}

func (StockMovement) TableName() string { return "stock_movements" }

// CompositeItemTransaction records raw material consumed and composite units
// generated for one order item.
type CompositeItemTransaction struct {
	ID                     uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID                uuid.UUID  `gorm:"type:uuid;index;not null"`
	OrderItemID            *uuid.UUID `gorm:"type:uuid"`
	VariationID            uuid.UUID  `gorm:"type:uuid;not null"`
	RawMaterialProductID   *uuid.UUID `gorm:"type:uuid"`
	RawMaterialVariationID *uuid.UUID `gorm:"type:uuid"`
	RawMaterialConsumed    int        `gorm:"not null"`
	VariationsGenerated    int        `gorm:"not null"`
	CreatedAt              time.Time
}

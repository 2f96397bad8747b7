package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable item. When HasVariations is true, stock lives on the
// variations and Product.StockQuantity is not consulted at sale time.
type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	CategoryID    *uuid.UUID      `gorm:"type:uuid;index"`
	Name          string          `gorm:"index;not null"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	StockQuantity int             `gorm:"not null;default:0"`
	HasVariations bool            `gorm:"not null;default:false"`

	EarnsLoyaltyPoints      bool `gorm:"not null;default:false"`
	LoyaltyPointsValue      int  `gorm:"not null;default:0"`
	CanBeRedeemedWithPoints bool `gorm:"not null;default:false"`
	RedemptionPointsCost    int  `gorm:"not null;default:0"`

	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Category   *Category   `gorm:"foreignKey:CategoryID"`
	Variations []Variation `gorm:"foreignKey:ProductID"`
}

// Variation belongs to one Product. A composite variation is produced on demand
// from a raw material (a product, or one of its variations) at YieldQuantity
// units per raw material unit.
type Variation struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	Name            string          `gorm:"not null"`
	PriceAdjustment decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	StockQuantity   int             `gorm:"not null;default:0"`

	IsComposite            bool       `gorm:"not null;default:false"`
	RawMaterialProductID   *uuid.UUID `gorm:"type:uuid"`
	RawMaterialVariationID *uuid.UUID `gorm:"type:uuid"`
	YieldQuantity          int        `gorm:"not null;default:1"`

	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Variation) TableName() string { return "product_variations" }

// UnitPrice is the base price plus the additive adjustment.
func (v Variation) UnitPrice(base decimal.Decimal) decimal.Decimal {
	return base.Add(v.PriceAdjustment)
}

// ProductPackagingLink consumes Quantity units of the packaging product for
// every unit sold of ProductID.
type ProductPackagingLink struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID     uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductID   uuid.UUID `gorm:"type:uuid;index;not null"`
	PackagingID uuid.UUID `gorm:"type:uuid;not null"`
	Quantity    int       `gorm:"not null;default:1"`
	CreatedAt   time.Time

	Packaging *Product `gorm:"foreignKey:PackagingID"`
}

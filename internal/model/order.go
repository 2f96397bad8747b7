package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order sources.
const (
	SourcePDV   = "pdv"
	SourceTotem = "totem"
)

// Order is a submitted cart. PaymentMethod holds the composed display label
// ("Fidelidade + PIX"); Payments holds the structured parts behind it.
// CashRegisterID is nil only for future-dated reservations.
type Order struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID        uuid.UUID  `gorm:"type:uuid;index;not null"`
	OrderNumber    string     `gorm:"type:varchar(20);index;not null"`
	CustomerID     *uuid.UUID `gorm:"type:uuid;index"`
	CustomerName   *string
	CashRegisterID *uuid.UUID       `gorm:"type:uuid;index"`
	Source         string           `gorm:"type:varchar(20);not null;default:'pdv'"`
	Status         string           `gorm:"type:varchar(20);index;not null"`
	Total          decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	PaymentMethod  string           `gorm:"not null;default:''"`
	ChangeFor      *decimal.Decimal `gorm:"type:decimal(12,2)"`

	Delivery             bool            `gorm:"not null;default:false"`
	DeliveryFee          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	DeliveryAddress      *string
	DeliveryNumber       *string
	DeliveryNeighborhood *string
	DeliveryReference    *string
	DeliveryCEP          *string `gorm:"column:delivery_cep"`

	ReservationDate *time.Time `gorm:"type:date"`
	PickupTime      *string    `gorm:"type:varchar(5)"`

	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items    []OrderItem    `gorm:"foreignKey:OrderID"`
	Payments []OrderPayment `gorm:"foreignKey:OrderID"`
	Customer *Customer      `gorm:"foreignKey:CustomerID"`
}

// OrderItem snapshots name and price at order time. Redeemed lines are stored
// with zero price and subtotal.
type OrderItem struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID              uuid.UUID  `gorm:"type:uuid;index;not null"`
	ProductID            uuid.UUID  `gorm:"type:uuid;not null"`
	VariationID          *uuid.UUID `gorm:"type:uuid"`
	ProductName          string     `gorm:"not null"`
	VariationName        *string
	ProductPrice         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Quantity             int             `gorm:"not null"`
	Subtotal             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IsRedeemedWithPoints bool            `gorm:"not null;default:false"`
	LoyaltyPointsEarned  int             `gorm:"not null;default:0"`
	CreatedAt            time.Time
}

// OrderPayment is one part of an order's payment. For the loyalty part Amount
// is a number of points.
type OrderPayment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	Method    string          `gorm:"type:varchar(20);not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time
}

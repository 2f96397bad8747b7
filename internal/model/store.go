package model

import (
	"time"

	"github.com/google/uuid"
)

type Store struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name                  string    `gorm:"not null"`
	Phone                 *string
	Active                bool `gorm:"not null;default:true"`
	MotoboyWhatsappNumber *string
	StockAlertEnabled     bool `gorm:"not null;default:false"`
	StockAlertThreshold   int  `gorm:"not null;default:0"`
	AlertEmail            *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// OrderStatusConfig is one row of a store's order flow. Active rows ordered by
// DisplayOrder form the flow.
type OrderStatusConfig struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID      uuid.UUID `gorm:"type:uuid;index;not null"`
	StatusKey    string    `gorm:"type:varchar(20);not null"`
	StatusLabel  string    `gorm:"not null"`
	DisplayOrder int       `gorm:"not null"`
	IsActive     bool      `gorm:"not null;default:true"`
}

func (OrderStatusConfig) TableName() string { return "order_status_config" }

// OperatingHours holds the regular hours for a day of week (0 = Sunday).
// Times are "HH:MM".
type OperatingHours struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID   uuid.UUID `gorm:"type:uuid;index;not null"`
	DayOfWeek int       `gorm:"not null"`
	IsOpen    bool      `gorm:"not null;default:true"`
	OpenTime  *string   `gorm:"type:varchar(5)"`
	CloseTime *string   `gorm:"type:varchar(5)"`
}

func (OperatingHours) TableName() string { return "store_operating_hours" }

// SpecialDay overrides the regular hours for one date.
type SpecialDay struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Date      time.Time `gorm:"type:date;not null"`
	IsOpen    bool      `gorm:"not null;default:false"`
	OpenTime  *string   `gorm:"type:varchar(5)"`
	CloseTime *string   `gorm:"type:varchar(5)"`
}

func (SpecialDay) TableName() string { return "store_special_days" }

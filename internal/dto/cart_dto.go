package dto

import "github.com/shopspring/decimal"

type CreateCartRequest struct {
	DeviceID string `json:"device_id"`
}

type SetCustomerRequest struct {
	Phone string `json:"phone" validate:"required,min=10,max=20"`
	Name  string `json:"name"`
}

type CartLineRequest struct {
	ProductID   string  `json:"product_id"   validate:"required,uuid"`
	VariationID *string `json:"variation_id" validate:"omitempty,uuid"`
}

type UpdateQuantityRequest struct {
	CartLineRequest
	Quantity int `json:"quantity" validate:"min=0"`
}

type CartLineResponse struct {
	ProductID            string          `json:"product_id"`
	VariationID          *string         `json:"variation_id,omitempty"`
	Name                 string          `json:"name"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	Quantity             int             `json:"quantity"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	IsComposite          bool            `json:"is_composite"`
	CanBeRedeemed        bool            `json:"can_be_redeemed"`
	RequiredPoints       int             `json:"required_points"`
	IsRedeemedWithPoints bool            `json:"is_redeemed_with_points"`
}

type CartResponse struct {
	ID             string             `json:"id"`
	StoreID        string             `json:"store_id"`
	Customer       *CustomerResponse  `json:"customer,omitempty"`
	Lines          []CartLineResponse `json:"lines"`
	ItemCount      int                `json:"item_count"`
	MonetaryTotal  decimal.Decimal    `json:"monetary_total"`
	PointsToRedeem int                `json:"points_to_redeem"`
}

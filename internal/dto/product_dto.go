package dto

import "github.com/shopspring/decimal"

// ProductFilter is bound from the query string of GET /v1/products.
type ProductFilter struct {
	Name            string `form:"name"`
	CategoryID      string `form:"category_id"`
	IncludeInactive bool   `form:"include_inactive"`
	RedeemableOnly  bool   `form:"redeemable_only"`
	// DeviceID sorts the device's favorites first
	DeviceID string `form:"device_id"`
}

type VariationResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	IsComposite   bool            `json:"is_composite"`
	YieldQuantity int             `json:"yield_quantity,omitempty"`
}

type ProductResponse struct {
	ID                   string              `json:"id"`
	Name                 string              `json:"name"`
	CategoryID           *string             `json:"category_id,omitempty"`
	Price                decimal.Decimal     `json:"price"`
	StockQuantity        int                 `json:"stock_quantity"`
	HasVariations        bool                `json:"has_variations"`
	EarnsLoyaltyPoints   bool                `json:"earns_loyalty_points"`
	LoyaltyPointsValue   int                 `json:"loyalty_points_value"`
	CanBeRedeemed        bool                `json:"can_be_redeemed_with_points"`
	RedemptionPointsCost int                 `json:"redemption_points_cost"`
	Favorite             bool                `json:"favorite"`
	Variations           []VariationResponse `json:"variations,omitempty"`
}

package dto

import "github.com/shopspring/decimal"

type FlowConfigRequest struct {
	Statuses []string `json:"statuses" validate:"required,min=1,dive,oneof=pending preparing ready"`
}

type StatusResponse struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type FlowResponse struct {
	Steps   []StatusResponse `json:"steps"`
	Visible []StatusResponse `json:"visible"`
}

type OpenCashRegisterRequest struct {
	OpeningAmount decimal.Decimal `json:"opening_amount" validate:"min=0"`
}

type CloseCashRegisterRequest struct {
	ClosingAmount decimal.Decimal `json:"closing_amount" validate:"min=0"`
	Notes         *string         `json:"notes"`
}

type CashRegisterResponse struct {
	ID            string           `json:"id"`
	StoreID       string           `json:"store_id"`
	OpeningAmount decimal.Decimal  `json:"opening_amount"`
	ClosingAmount *decimal.Decimal `json:"closing_amount,omitempty"`
	OpenedAt      string           `json:"opened_at"`
	ClosedAt      *string          `json:"closed_at,omitempty"`
}

type PreferencesResponse struct {
	Favorites     []string `json:"favorites"`
	SearchHistory []string `json:"search_history"`
	PrintEnabled  bool     `json:"print_enabled"`
}

type FavoriteRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

type SearchTermRequest struct {
	Term string `json:"term" validate:"required,max=100"`
}

type PrintToggleRequest struct {
	Enabled bool `json:"enabled"`
}

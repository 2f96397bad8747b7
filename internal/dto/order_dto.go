package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CartItemRequest struct {
	ProductID        string  `json:"product_id"         validate:"required,uuid"`
	VariationID      *string `json:"variation_id"       validate:"omitempty,uuid"`
	Quantity         int     `json:"quantity"           validate:"required,min=1"`
	RedeemWithPoints bool    `json:"redeem_with_points"`
}

type DeliveryRequest struct {
	Address      string `json:"address"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	Reference    string `json:"reference"`
	CEP          string `json:"cep"`
	// SaveAddress stores the address on the customer for later orders
	SaveAddress bool `json:"save_address"`
}

// CheckoutRequest carries everything about an order that is not in the cart.
type CheckoutRequest struct {
	PaymentMethod   string           `json:"payment_method"   validate:"omitempty,oneof=pix credito debito dinheiro fidelidade reserva"`
	ChangeFor       *decimal.Decimal `json:"change_for"`
	DeliveryFee     decimal.Decimal  `json:"delivery_fee"     validate:"min=0"`
	Delivery        *DeliveryRequest `json:"delivery"`
	ReservationDate *string          `json:"reservation_date" validate:"omitempty,datetime=2006-01-02"`
	PickupTime      *string          `json:"pickup_time"      validate:"omitempty,datetime=15:04"`
	CustomerName    *string          `json:"customer_name"`
	DeviceID        string           `json:"device_id"`
}

// TotemOrderRequest is a whole kiosk order in one call.
type TotemOrderRequest struct {
	Items []CartItemRequest `json:"items" validate:"required,min=1,dive"`
	Phone string            `json:"phone" validate:"omitempty,min=10,max=20"`
	Name  string            `json:"name"`
	CheckoutRequest
}

type CompleteReservationRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
}

type CancelOrderRequest struct {
	Confirmed bool `json:"confirmed"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderItemResponse struct {
	ProductID            string          `json:"product_id"`
	VariationID          *string         `json:"variation_id,omitempty"`
	Name                 string          `json:"name"`
	Quantity             int             `json:"quantity"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	IsRedeemedWithPoints bool            `json:"is_redeemed_with_points"`
}

type PaymentPartResponse struct {
	Method string          `json:"method"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

type OrderResponse struct {
	ID             string                `json:"id"`
	OrderNumber    string                `json:"order_number"`
	Source         string                `json:"source"`
	Status         string                `json:"status"`
	StatusLabel    string                `json:"status_label"`
	Total          decimal.Decimal       `json:"total"`
	DeliveryFee    decimal.Decimal       `json:"delivery_fee"`
	PaymentMethod  string                `json:"payment_method"`
	Payments       []PaymentPartResponse `json:"payments,omitempty"`
	PointsRedeemed int                   `json:"points_redeemed,omitempty"`
	CustomerID     *string               `json:"customer_id,omitempty"`
	CustomerName   *string               `json:"customer_name,omitempty"`
	CashRegisterID *string               `json:"cash_register_id,omitempty"`
	Delivery       bool                  `json:"delivery"`
	Address        string                `json:"address,omitempty"`
	ReservationAt  *string               `json:"reservation_date,omitempty"`
	PickupTime     *string               `json:"pickup_time,omitempty"`
	Items          []OrderItemResponse   `json:"items"`
	CreatedAt      string                `json:"created_at"`
	// Warnings lists reconciliation steps that failed after the order was saved
	Warnings []string `json:"warnings,omitempty"`
}

type TransitionResponse struct {
	OrderID       string   `json:"order_id"`
	From          string   `json:"from"`
	To            string   `json:"to"`
	StatusLabel   string   `json:"status_label"`
	PaymentMethod string   `json:"payment_method"`
	Warnings      []string `json:"warnings,omitempty"`
}

type BoardColumn struct {
	Status string          `json:"status"`
	Label  string          `json:"label"`
	Orders []OrderResponse `json:"orders"`
}

type BoardResponse struct {
	Columns []BoardColumn `json:"columns"`
}

type CourierLinkResponse struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

// Package cart holds the ephemeral state of a cart being built at the counter
// or at the kiosk, before it is submitted as an order.
package cart

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrLineNotFound       = errors.New("item não está no carrinho")
	ErrNoCustomer         = errors.New("cliente não identificado")
	ErrNotRedeemable      = errors.New("produto não pode ser resgatado com pontos")
	ErrInsufficientPoints = errors.New("pontos insuficientes")
)

// Line is one cart entry: a product, optionally bound to a variation.
type Line struct {
	ProductID     uuid.UUID       `json:"product_id"`
	VariationID   *uuid.UUID      `json:"variation_id,omitempty"`
	ProductName   string          `json:"product_name"`
	VariationName string          `json:"variation_name,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	IsComposite   bool            `json:"is_composite"`

	EarnsPoints          bool `json:"earns_points"`
	PointsValue          int  `json:"points_value"`
	CanBeRedeemed        bool `json:"can_be_redeemed"`
	RedemptionCost       int  `json:"redemption_cost"`
	IsRedeemedWithPoints bool `json:"is_redeemed_with_points"`
}

// Key identifies a line by product and variation.
type Key struct {
	ProductID   uuid.UUID
	VariationID uuid.UUID // uuid.Nil when the line has no variation
}

func (l Line) Key() Key {
	k := Key{ProductID: l.ProductID}
	if l.VariationID != nil {
		k.VariationID = *l.VariationID
	}
	return k
}

// DisplayName joins product and variation names the way receipts print them.
func (l Line) DisplayName() string {
	if l.VariationName == "" {
		return l.ProductName
	}
	return l.ProductName + " - " + l.VariationName
}

// Subtotal is the monetary subtotal; redeemed lines cost nothing.
func (l Line) Subtotal() decimal.Decimal {
	if l.IsRedeemedWithPoints {
		return decimal.Zero
	}
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// RequiredPoints is what redeeming the whole line costs.
func (l Line) RequiredPoints() int { return l.RedemptionCost * l.Quantity }

// Customer is the identified customer bound to a cart.
type Customer struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Phone  string    `json:"phone"`
	Points int       `json:"points"`
}

// Cart is a cart session. It is not safe for concurrent use.
type Cart struct {
	ID        uuid.UUID `json:"id"`
	StoreID   uuid.UUID `json:"store_id"`
	DeviceID  string    `json:"device_id,omitempty"`
	Customer  *Customer `json:"customer,omitempty"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

func New(storeID uuid.UUID, deviceID string) *Cart {
	return &Cart{ID: uuid.New(), StoreID: storeID, DeviceID: deviceID, Lines: []Line{}}
}

func (c *Cart) Empty() bool { return len(c.Lines) == 0 }

func (c *Cart) index(k Key) int {
	for i, l := range c.Lines {
		if l.Key() == k {
			return i
		}
	}
	return -1
}

// Line returns the line for k.
func (c *Cart) Line(k Key) (Line, bool) {
	i := c.index(k)
	if i < 0 {
		return Line{}, false
	}
	return c.Lines[i], true
}

// Quantity is the current quantity for k, 0 when absent.
func (c *Cart) Quantity(k Key) int {
	if l, ok := c.Line(k); ok {
		return l.Quantity
	}
	return 0
}

// Add adds one unit of l, appending a new line when none exists yet.
func (c *Cart) Add(l Line) {
	if i := c.index(l.Key()); i >= 0 {
		c.Lines[i].Quantity++
		return
	}
	l.Quantity = 1
	l.IsRedeemedWithPoints = false
	c.Lines = append(c.Lines, l)
}

// SetQuantity replaces a line's quantity; zero or less removes it.
func (c *Cart) SetQuantity(k Key, qty int) error {
	i := c.index(k)
	if i < 0 {
		return ErrLineNotFound
	}
	if qty <= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		return nil
	}
	c.Lines[i].Quantity = qty
	return nil
}

func (c *Cart) Remove(k Key) error { return c.SetQuantity(k, 0) }

// ToggleRedeem flips a line between paid and redeemed with points. Marking a
// line as redeemed requires an identified customer whose current balance
// covers the line's cost; otherwise the line is left untouched.
func (c *Cart) ToggleRedeem(k Key) (bool, error) {
	i := c.index(k)
	if i < 0 {
		return false, ErrLineNotFound
	}
	l := &c.Lines[i]
	if l.IsRedeemedWithPoints {
		l.IsRedeemedWithPoints = false
		return false, nil
	}
	if c.Customer == nil {
		return false, ErrNoCustomer
	}
	if !l.CanBeRedeemed || l.RedemptionCost <= 0 {
		return false, ErrNotRedeemable
	}
	if c.Customer.Points < l.RequiredPoints() {
		return false, ErrInsufficientPoints
	}
	l.IsRedeemedWithPoints = true
	return true, nil
}

// SetCustomer binds a customer. Clearing it also clears every redemption,
// since points belong to the customer.
func (c *Cart) SetCustomer(cu *Customer) {
	c.Customer = cu
	if cu != nil {
		return
	}
	for i := range c.Lines {
		c.Lines[i].IsRedeemedWithPoints = false
	}
}

// MonetaryTotal sums the subtotals of lines not redeemed with points.
func (c *Cart) MonetaryTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// PointsToRedeem sums the points required by redeemed lines.
func (c *Cart) PointsToRedeem() int {
	n := 0
	for _, l := range c.Lines {
		if l.IsRedeemedWithPoints {
			n += l.RequiredPoints()
		}
	}
	return n
}

func (c *Cart) HasRedeemed() bool { return c.PointsToRedeem() > 0 }

// ItemCount is the number of units in the cart.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Clear() {
	c.Lines = []Line{}
	c.Customer = nil
}

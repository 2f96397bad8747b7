// Package payment models how an order is paid: a structured list of parts
// (method + amount) whose display form is the composed label stored on the
// order, e.g. "Fidelidade + PIX".
package payment

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// Method is a payment method key as sent by clients.
type Method string

const (
	PIX         Method = "pix"
	Credit      Method = "credito"
	Debit       Method = "debito"
	Cash        Method = "dinheiro"
	Loyalty     Method = "fidelidade"
	Reservation Method = "reserva"
)

var labels = map[Method]string{
	PIX:         "PIX",
	Credit:      "Crédito",
	Debit:       "Débito",
	Cash:        "Dinheiro",
	Loyalty:     "Fidelidade",
	Reservation: "Reserva",
}

// Separator joins the labels of a composed payment.
const Separator = " + "

var ErrUnknownMethod = errors.New("forma de pagamento inválida")

// normalize case-folds s. Casers are stateful, so each call gets its own.
func normalize(s string) string { return cases.Fold().String(strings.TrimSpace(s)) }

// ParseMethod accepts either a method key ("credito") or its label ("Crédito").
func ParseMethod(s string) (Method, error) {
	n := normalize(s)
	for m, l := range labels {
		if n == string(m) || n == normalize(l) {
			return m, nil
		}
	}
	return "", ErrUnknownMethod
}

func (m Method) Valid() bool {
	_, ok := labels[m]
	return ok
}

// Label is the display label; unknown methods render as their raw key.
func (m Method) Label() string {
	if l, ok := labels[m]; ok {
		return l
	}
	return string(m)
}

// SettlementMethods are the choices offered when a reservation is completed.
func SettlementMethods() []Method {
	return []Method{PIX, Credit, Debit, Cash}
}

// IsSettlement reports whether m can settle a reservation.
func IsSettlement(m Method) bool {
	for _, s := range SettlementMethods() {
		if s == m {
			return true
		}
	}
	return false
}

// Part is one component of an order's payment.
type Part struct {
	Method Method          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// Composition is the ordered payment of an order. Loyalty always comes first.
type Composition []Part

// Compose builds the payment of an order: a loyalty part when points were
// redeemed (amount is the number of points) followed by the monetary method
// covering total, if any.
func Compose(pointsRedeemed int, method Method, total decimal.Decimal) Composition {
	var c Composition
	if pointsRedeemed > 0 {
		c = append(c, Part{Method: Loyalty, Amount: decimal.NewFromInt(int64(pointsRedeemed))})
	}
	if method != "" {
		c = append(c, Part{Method: method, Amount: total})
	}
	return c
}

// Format renders the composed label stored in orders.payment_method.
func (c Composition) Format() string {
	parts := make([]string, 0, len(c))
	for _, p := range c {
		parts = append(parts, p.Method.Label())
	}
	return strings.Join(parts, Separator)
}

func (c Composition) Has(m Method) bool {
	for _, p := range c {
		if p.Method == m {
			return true
		}
	}
	return false
}

// IsLoyalty reports whether a stored payment label includes a loyalty part.
// Matching is case-insensitive and by substring, as stored labels are free text.
func IsLoyalty(label string) bool {
	return strings.Contains(normalize(label), string(Loyalty))
}

// IsReservation reports whether a stored payment label is a deferred payment.
func IsReservation(label string) bool {
	return normalize(label) == string(Reservation)
}

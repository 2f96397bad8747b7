package service_test

import (
	"context"
	"errors"
	"testing"

	"balcao/internal/model"
	"balcao/internal/notify"
	"balcao/internal/service"
	"balcao/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedOrder stores an order directly, bypassing checkout.
func (f *fixture) seedOrder(status, label string, payments ...model.OrderPayment) *model.Order {
	o := &model.Order{
		ID:            uuid.New(),
		StoreID:       f.storeID,
		OrderNumber:   "PED-" + uuid.NewString()[:6],
		Status:        status,
		Total:         decimal.RequireFromString("24.00"),
		PaymentMethod: label,
		Payments:      payments,
		CreatedAt:     f.now,
	}
	f.orders.orders[o.ID] = o
	return o
}

func pay(m string, amount string) model.OrderPayment {
	return model.OrderPayment{Method: m, Amount: decimal.RequireFromString(amount)}
}

func TestAdvance_WalksTheFlow(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()
	o := f.seedOrder("pending", "PIX", pay("pix", "24.00"))

	var path []string
	for i := 0; i < 3; i++ {
		resp, err := f.status.Advance(ctx, f.storeID, o.ID)
		require.NoError(t, err)
		path = append(path, resp.To)
	}
	assert.Equal(t, []string{"preparing", "ready", "delivered"}, path)

	_, err := f.status.Advance(ctx, f.storeID, o.ID)
	requireKind(t, err, service.KindValidation, "Pedido já finalizado")

	events := f.events.Events()
	require.Len(t, events, 3)
	assert.Equal(t, notify.OrderStatusChanged, events[2].Type)
	assert.Equal(t, "delivered", events[2].Status)
}

func TestAdvance_ShortFlowSkipsToDelivered(t *testing.T) {
	f := newTxFixture(t)
	f.stores.flows[f.storeID] = []model.OrderStatusConfig{
		{StoreID: f.storeID, StatusKey: "pending", DisplayOrder: 1, IsActive: true},
		{StoreID: f.storeID, StatusKey: "ready", DisplayOrder: 2, IsActive: false},
	}
	o := f.seedOrder("pending", "PIX", pay("pix", "24.00"))

	resp, err := f.status.Advance(context.Background(), f.storeID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "delivered", resp.To)
	assert.Equal(t, "Entregue", resp.StatusLabel)
}

func TestAdvance_OtherStoreIsNotFound(t *testing.T) {
	f := newTxFixture(t)
	o := f.seedOrder("pending", "PIX")

	_, err := f.status.Advance(context.Background(), uuid.New(), o.ID)
	requireKind(t, err, service.KindNotFound, "Pedido não encontrado")
	assert.Equal(t, "pending", f.orders.orders[o.ID].Status)
}

func TestAdvance_DeliveryCreditsEarnedPoints(t *testing.T) {
	f := newTxFixture(t)
	ana := f.customer(t, "Ana", "11999990000", 0)
	o := f.seedOrder("ready", "PIX", pay("pix", "24.00"))
	o.CustomerID = &ana.ID
	o.Items = []model.OrderItem{{ProductName: "Pastel", Quantity: 2, LoyaltyPointsEarned: 12}}

	resp, err := f.status.Advance(context.Background(), f.storeID, o.ID)
	require.NoError(t, err)
	assert.Empty(t, resp.Warnings)
	assert.Equal(t, 12, f.customers.customers[ana.ID].Points)
}

// ── Reservations ─────────────────────────────────────────────────────────────

func TestAdvance_ReservationNeedsPaymentBeforeDelivery(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()
	o := f.seedOrder("ready", "Reserva", pay("reserva", "24.00"))

	_, err := f.status.Advance(ctx, f.storeID, o.ID)
	requireKind(t, err, service.KindConflict, "Selecione a forma de pagamento")
	ue, _ := service.AsUserError(err)
	assert.Equal(t, []string{"PIX", "Crédito", "Débito", "Dinheiro"}, ue.Options)
	assert.Equal(t, "ready", f.orders.orders[o.ID].Status)

	resp, err := f.status.CompleteReservation(ctx, f.storeID, o.ID, "pix")
	require.NoError(t, err)
	assert.Equal(t, "delivered", resp.To)
	assert.Equal(t, "PIX", resp.PaymentMethod)

	stored := f.orders.orders[o.ID]
	assert.Equal(t, "delivered", stored.Status)
	assert.Equal(t, "PIX", stored.PaymentMethod)
	require.Len(t, stored.Payments, 1)
	assert.Equal(t, "pix", stored.Payments[0].Method)
}

func TestAdvance_ReservationMidFlowAdvancesNormally(t *testing.T) {
	f := newTxFixture(t)
	o := f.seedOrder("pending", "Reserva", pay("reserva", "24.00"))

	resp, err := f.status.Advance(context.Background(), f.storeID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "preparing", resp.To)
}

func TestCompleteReservation_KeepsLoyaltyPart(t *testing.T) {
	f := newTxFixture(t)
	o := f.seedOrder("ready", "Fidelidade + Reserva", pay("fidelidade", "30"), pay("reserva", "24.00"))

	resp, err := f.status.CompleteReservation(context.Background(), f.storeID, o.ID, "dinheiro")
	require.NoError(t, err)
	assert.Equal(t, "Fidelidade + Dinheiro", resp.PaymentMethod)
}

func TestCompleteReservation_Rejections(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()
	reserved := f.seedOrder("ready", "Reserva", pay("reserva", "24.00"))
	early := f.seedOrder("pending", "Reserva", pay("reserva", "24.00"))
	paid := f.seedOrder("ready", "PIX", pay("pix", "24.00"))

	_, err := f.status.CompleteReservation(ctx, f.storeID, reserved.ID, "fidelidade")
	requireKind(t, err, service.KindValidation, "Forma de pagamento inválida")

	_, err = f.status.CompleteReservation(ctx, f.storeID, reserved.ID, "reserva")
	requireKind(t, err, service.KindValidation, "Forma de pagamento inválida")

	_, err = f.status.CompleteReservation(ctx, f.storeID, early.ID, "pix")
	requireKind(t, err, service.KindValidation, "Pedido ainda não está pronto")

	_, err = f.status.CompleteReservation(ctx, f.storeID, paid.ID, "pix")
	requireKind(t, err, service.KindValidation, "Pedido não é uma reserva")

	assert.Equal(t, "ready", f.orders.orders[reserved.ID].Status)
}

// ── Cancel ───────────────────────────────────────────────────────────────────

func TestCancel_RequiresConfirmation(t *testing.T) {
	f := newTxFixture(t)
	o := f.seedOrder("pending", "PIX")

	_, err := f.status.Cancel(context.Background(), f.storeID, o.ID, false)
	requireKind(t, err, service.KindValidation, "Confirme o cancelamento")
	assert.Equal(t, "pending", f.orders.orders[o.ID].Status)
}

func TestCancel_ReturnsRedeemedPoints(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()
	ana := f.customer(t, "Ana", "11999990000", 100)
	o := f.seedOrder("preparing", "Fidelidade + PIX", pay("fidelidade", "60"), pay("pix", "6.00"))
	o.CustomerID = &ana.ID
	require.NoError(t, f.loyalty.RedeemTx(ctx, nil, o, 60))
	require.Equal(t, 40, f.customers.customers[ana.ID].Points)

	resp, err := f.status.Cancel(ctx, f.storeID, o.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.To)
	assert.Empty(t, resp.Warnings)
	assert.Equal(t, 100, f.customers.customers[ana.ID].Points)

	_, err = f.status.Cancel(ctx, f.storeID, o.ID, true)
	requireKind(t, err, service.KindValidation, "Pedido já finalizado")
	assert.Equal(t, 100, f.customers.customers[ana.ID].Points)
}

func TestCancel_ReversalFailureIsAWarning(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()
	ana := f.customer(t, "Ana", "11999990000", 100)
	o := f.seedOrder("pending", "Fidelidade", pay("fidelidade", "30"))
	o.CustomerID = &ana.ID
	require.NoError(t, f.loyalty.RedeemTx(ctx, nil, o, 30))
	f.customers.addErr = errors.New("deadlock detected")

	resp, err := f.status.Cancel(ctx, f.storeID, o.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", f.orders.orders[o.ID].Status)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "Pontos não devolvidos")
	require.Len(t, f.jobs.dead, 1)
	assert.Equal(t, worker.QueueReconcile, f.jobs.dead[0].Queue)
	assert.Equal(t, "loyalty_reversal", f.jobs.dead[0].JobType)
}

func TestCancel_DeliveredIsFinal(t *testing.T) {
	f := newTxFixture(t)
	o := f.seedOrder("delivered", "PIX")

	_, err := f.status.Cancel(context.Background(), f.storeID, o.ID, true)
	requireKind(t, err, service.KindValidation, "Pedido já finalizado")
}

package service_test

import (
	"context"
	"errors"
	"testing"

	"balcao/internal/model"
	"balcao/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loyaltyOrder(f *fixture, c *model.Customer, label string) *model.Order {
	id := c.ID
	return &model.Order{ID: uuid.New(), StoreID: f.storeID, OrderNumber: "PED-000777", CustomerID: &id, PaymentMethod: label}
}

func TestLoyalty_CanRedeem(t *testing.T) {
	f := newTxFixture(t)
	assert.True(t, f.loyalty.CanRedeem(100, 30, 2))
	assert.True(t, f.loyalty.CanRedeem(60, 30, 2))
	assert.False(t, f.loyalty.CanRedeem(59, 30, 2))
	assert.False(t, f.loyalty.CanRedeem(100, 0, 1))
}

func TestLoyalty_RedeemThenReverseRestoresBalance(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()
	ana := f.customer(t, "Ana", "11999990000", 100)
	order := loyaltyOrder(f, ana, "Fidelidade + PIX")

	require.NoError(t, f.loyalty.RedeemTx(ctx, nil, order, 60))
	assert.Equal(t, 40, f.customers.customers[ana.ID].Points)

	redeem := f.ledger.rows[len(f.ledger.rows)-1]
	assert.Equal(t, -60, redeem.Points)
	assert.Equal(t, model.LoyaltyRedeem, redeem.Type)
	assert.Equal(t, model.ReasonRedemption, redeem.Reason)
	assert.Equal(t, "Resgate de 60 pontos no pedido PED-000777", redeem.Description)

	returned, err := f.loyalty.ReverseForCancellation(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, 60, returned)
	assert.Equal(t, 100, f.customers.customers[ana.ID].Points)

	reversal := f.ledger.rows[len(f.ledger.rows)-1]
	assert.Equal(t, 60, reversal.Points)
	assert.Equal(t, model.LoyaltyEarn, reversal.Type)
	assert.Equal(t, model.ReasonRedemptionReversal, reversal.Reason)

	// a second cancellation must not credit again
	rows := len(f.ledger.rows)
	returned, err = f.loyalty.ReverseForCancellation(ctx, order)
	require.NoError(t, err)
	assert.Zero(t, returned)
	assert.Equal(t, 100, f.customers.customers[ana.ID].Points)
	assert.Len(t, f.ledger.rows, rows)

	audit, err := f.loyalty.Audit(ctx, f.storeID, ana.ID)
	require.NoError(t, err)
	assert.True(t, audit.Consistent)
	assert.Equal(t, 100, audit.LedgerSum)
}

func TestLoyalty_RedeemShortBalance(t *testing.T) {
	f := newTxFixture(t)
	ana := f.customer(t, "Ana", "11999990000", 20)

	err := f.loyalty.RedeemTx(context.Background(), nil, loyaltyOrder(f, ana, "Fidelidade"), 30)
	requireKind(t, err, service.KindValidation, "Pontos insuficientes")
	assert.Equal(t, 20, f.customers.customers[ana.ID].Points)
	assert.Len(t, f.ledger.rows, 1)
}

func TestLoyalty_RedeemLedgerFailureKeepsBalance(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()
	ana := f.customer(t, "Ana", "11999990000", 100)
	require.Equal(t, 100, ana.Points)
	f.ledger.createErr = errors.New("ledger insert failed")

	err := f.loyalty.RedeemTx(ctx, nil, loyaltyOrder(f, ana, "Fidelidade"), 60)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PED-000777")
	assert.Equal(t, 100, f.customers.customers[ana.ID].Points)

	f.ledger.createErr = nil
	audit, err := f.loyalty.Audit(ctx, f.storeID, ana.ID)
	require.NoError(t, err)
	assert.True(t, audit.Consistent)
}

func TestLoyalty_ReverseSkipsNonLoyaltyPayment(t *testing.T) {
	f := newTxFixture(t)
	ana := f.customer(t, "Ana", "11999990000", 50)

	returned, err := f.loyalty.ReverseForCancellation(context.Background(), loyaltyOrder(f, ana, "PIX"))
	require.NoError(t, err)
	assert.Zero(t, returned)
	assert.Equal(t, 50, f.customers.customers[ana.ID].Points)
}

func TestLoyalty_ReverseFailureLeavesBalance(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()
	ana := f.customer(t, "Ana", "11999990000", 100)
	order := loyaltyOrder(f, ana, "Fidelidade")
	require.NoError(t, f.loyalty.RedeemTx(ctx, nil, order, 30))

	f.customers.addErr = errors.New("deadlock detected")
	_, err := f.loyalty.ReverseForCancellation(ctx, order)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PED-000777")
	assert.Equal(t, 70, f.customers.customers[ana.ID].Points)
}

func TestLoyalty_EarnForOrderOnce(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()
	ana := f.customer(t, "Ana", "11999990000", 0)
	order := loyaltyOrder(f, ana, "PIX")
	order.Items = []model.OrderItem{
		{ProductName: "Pastel", Quantity: 2, LoyaltyPointsEarned: 20},
		{ProductName: "Caldo", Quantity: 1, LoyaltyPointsEarned: 15, IsRedeemedWithPoints: true},
	}

	earned, err := f.loyalty.EarnForOrder(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, 20, earned)

	earned, err = f.loyalty.EarnForOrder(ctx, order)
	require.NoError(t, err)
	assert.Zero(t, earned)
	assert.Equal(t, 20, f.customers.customers[ana.ID].Points)

	history, err := f.loyalty.History(ctx, f.storeID, ana.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Pontos ganhos no pedido PED-000777", history[0].Description)
}

func TestLoyalty_AuditFlagsDrift(t *testing.T) {
	f := newTxFixture(t)
	ana := f.customer(t, "Ana", "11999990000", 40)
	f.customers.customers[ana.ID].Points = 55

	audit, err := f.loyalty.Audit(context.Background(), f.storeID, ana.ID)
	require.NoError(t, err)
	assert.False(t, audit.Consistent)
	assert.Equal(t, 55, audit.Balance)
	assert.Equal(t, 40, audit.LedgerSum)

	_, err = f.loyalty.Audit(context.Background(), f.storeID, uuid.New())
	requireKind(t, err, service.KindNotFound, "Cliente não encontrado")

	// customers of another store are invisible
	_, err = f.loyalty.History(context.Background(), uuid.New(), ana.ID)
	requireKind(t, err, service.KindNotFound, "Cliente não encontrado")
}

func TestLoyalty_AuditStore(t *testing.T) {
	f := newTxFixture(t)
	ana := f.customer(t, "Ana", "11999990000", 40)
	f.customer(t, "Bruno", "11988880000", 15)
	f.customers.customers[ana.ID].Points = 41

	audits, err := f.loyalty.AuditStore(context.Background(), f.storeID)
	require.NoError(t, err)
	require.Len(t, audits, 2)
	assert.Equal(t, ana.ID.String(), audits[0].CustomerID)
	assert.False(t, audits[0].Consistent)
	assert.True(t, audits[1].Consistent)
}

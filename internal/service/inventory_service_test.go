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

func saleOrder(f *fixture, items ...model.OrderItem) *model.Order {
	o := &model.Order{ID: uuid.New(), StoreID: f.storeID, OrderNumber: "PED-000123"}
	for i := range items {
		items[i].ID = uuid.New()
		items[i].OrderID = o.ID
	}
	o.Items = items
	return o
}

func saleItem(p *model.Product, v *model.Variation, qty int) model.OrderItem {
	it := model.OrderItem{ProductID: p.ID, ProductName: p.Name, ProductPrice: p.Price, Quantity: qty}
	if v != nil {
		id, name := v.ID, v.Name
		it.VariationID = &id
		it.VariationName = &name
	}
	return it
}

func TestCheckLine_SimpleProduct(t *testing.T) {
	f := newTxFixture(t)
	coxinha := f.product(t, "Coxinha", "8.00", 3)

	require.NoError(t, f.inventory.CheckLine(context.Background(), ref(coxinha, nil), 3))

	err := f.inventory.CheckLine(context.Background(), ref(coxinha, nil), 4)
	requireKind(t, err, service.KindValidation, "Estoque insuficiente")
	ue, _ := service.AsUserError(err)
	assert.Equal(t, "disponível: 3", ue.Detail)
}

func TestCheckLine_CompositeFallsBackToRawMaterial(t *testing.T) {
	f := newTxFixture(t)
	massa := f.product(t, "Massa", "0.00", 10)
	pastel := f.product(t, "Pastel", "12.00", 0)
	carne := f.composite(t, pastel, "Carne", 0, massa, 5)
	ctx := context.Background()

	// variation stock is 0 but raw material can produce it
	require.NoError(t, f.inventory.CheckLine(ctx, ref(pastel, carne), 7))

	f.products.products[massa.ID].StockQuantity = 0
	err := f.inventory.CheckLine(ctx, ref(pastel, carne), 1)
	requireKind(t, err, service.KindValidation, "Matéria-prima insuficiente")
}

func TestCheckLine_CompositeCoveredByOwnStock(t *testing.T) {
	f := newTxFixture(t)
	massa := f.product(t, "Massa", "0.00", 0)
	pastel := f.product(t, "Pastel", "12.00", 0)
	queijo := f.composite(t, pastel, "Queijo", 4, massa, 5)

	assert.NoError(t, f.inventory.CheckLine(context.Background(), ref(pastel, queijo), 4))
}

func TestApplySaleTx_SimpleDecrement(t *testing.T) {
	f := newTxFixture(t)
	coxinha := f.product(t, "Coxinha", "8.00", 5)
	order := saleOrder(f, saleItem(coxinha, nil, 2))

	changes, err := f.inventory.ApplySaleTx(context.Background(), nil, order)
	require.NoError(t, err)

	assert.Equal(t, 3, f.products.stockOf(ref(coxinha, nil)))
	require.Len(t, changes, 1)
	assert.Equal(t, 3, changes[0].After)
	require.Len(t, f.products.movements, 1)
	mv := f.products.movements[0]
	assert.Equal(t, model.MovementSale, mv.Kind)
	assert.Equal(t, -2, mv.Quantity)
	assert.Equal(t, 5, mv.StockBefore)
	assert.Equal(t, 3, mv.StockAfter)
	assert.Equal(t, order.ID, *mv.OrderID)
}

func TestApplySaleTx_CompositeManufacturesFromRawMaterial(t *testing.T) {
	f := newTxFixture(t)
	massa := f.product(t, "Massa", "0.00", 10)
	pastel := f.product(t, "Pastel", "12.00", 0)
	carne := f.composite(t, pastel, "Carne", 0, massa, 5)
	order := saleOrder(f, saleItem(pastel, carne, 2))

	changes, err := f.inventory.ApplySaleTx(context.Background(), nil, order)
	require.NoError(t, err)

	assert.Equal(t, 3, f.products.stockOf(ref(pastel, carne)))
	assert.Equal(t, 9, f.products.stockOf(ref(massa, nil)))

	require.Len(t, f.products.composites, 1)
	rec := f.products.composites[0]
	assert.Equal(t, 1, rec.RawMaterialConsumed)
	assert.Equal(t, 5, rec.VariationsGenerated)
	assert.Equal(t, carne.ID, rec.VariationID)
	require.NotNil(t, rec.OrderItemID)
	assert.Equal(t, order.Items[0].ID, *rec.OrderItemID)

	var kinds []string
	for _, m := range f.products.movements {
		kinds = append(kinds, m.Kind)
	}
	assert.Equal(t, []string{model.MovementSale, model.MovementCompositeConsumption, model.MovementCompositeYield}, kinds)

	after := map[string]int{}
	for _, c := range changes {
		after[c.Name] = c.After
	}
	assert.Equal(t, map[string]int{"Pastel - Carne": 3, "Massa": 9}, after)
}

func TestApplySaleTx_CompositeWithoutManufacturing(t *testing.T) {
	f := newTxFixture(t)
	massa := f.product(t, "Massa", "0.00", 10)
	pastel := f.product(t, "Pastel", "12.00", 0)
	carne := f.composite(t, pastel, "Carne", 4, massa, 5)

	_, err := f.inventory.ApplySaleTx(context.Background(), nil, saleOrder(f, saleItem(pastel, carne, 2)))
	require.NoError(t, err)

	assert.Equal(t, 2, f.products.stockOf(ref(pastel, carne)))
	assert.Equal(t, 10, f.products.stockOf(ref(massa, nil)))
	assert.Empty(t, f.products.composites)
}

func TestApplySaleTx_ShortageIsValidationError(t *testing.T) {
	f := newTxFixture(t)
	coxinha := f.product(t, "Coxinha", "8.00", 1)

	_, err := f.inventory.ApplySaleTx(context.Background(), nil, saleOrder(f, saleItem(coxinha, nil, 2)))
	requireKind(t, err, service.KindValidation, "Estoque insuficiente")
	assert.Equal(t, 1, f.products.stockOf(ref(coxinha, nil)))
}

func TestApplySaleTx_PackagingFloorsAtZero(t *testing.T) {
	f := newTxFixture(t)
	coxinha := f.product(t, "Coxinha", "8.00", 10)
	caixa := f.product(t, "Caixa", "0.00", 1)
	require.NoError(t, f.products.CreatePackagingLink(context.Background(), &model.ProductPackagingLink{
		StoreID: f.storeID, ProductID: coxinha.ID, PackagingID: caixa.ID, Quantity: 1,
	}))

	changes, err := f.inventory.ApplySaleTx(context.Background(), nil, saleOrder(f, saleItem(coxinha, nil, 3)))
	require.NoError(t, err)

	assert.Equal(t, 7, f.products.stockOf(ref(coxinha, nil)))
	assert.Equal(t, 0, f.products.stockOf(ref(caixa, nil)))
	require.Len(t, changes, 2)
	assert.Equal(t, "Caixa", changes[1].Name)
	assert.Equal(t, model.MovementPackaging, f.products.movements[1].Kind)
}

func TestApplySaleBestEffort_FailedLineDoesNotStopOthers(t *testing.T) {
	f := newTxFixture(t)
	coxinha := f.product(t, "Coxinha", "8.00", 5)
	suco := f.product(t, "Suco", "6.00", 5)
	f.products.failOn[ref(suco, nil).String()] = errors.New("connection reset")

	changes, errs := f.inventory.ApplySaleBestEffort(context.Background(), saleOrder(f,
		saleItem(coxinha, nil, 2),
		saleItem(suco, nil, 1),
	))

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "Suco")
	assert.Equal(t, 3, f.products.stockOf(ref(coxinha, nil)))
	require.Len(t, changes, 1)
	assert.Equal(t, "Coxinha", changes[0].Name)
}

func TestApplySaleBestEffort_OversellClampsAtZero(t *testing.T) {
	f := newTxFixture(t)
	coxinha := f.product(t, "Coxinha", "8.00", 1)

	_, errs := f.inventory.ApplySaleBestEffort(context.Background(), saleOrder(f, saleItem(coxinha, nil, 3)))

	assert.Empty(t, errs)
	assert.Equal(t, 0, f.products.stockOf(ref(coxinha, nil)))
}

func TestApplySaleBestEffort_Composite(t *testing.T) {
	f := newTxFixture(t)
	massa := f.product(t, "Massa", "0.00", 10)
	pastel := f.product(t, "Pastel", "12.00", 0)
	carne := f.composite(t, pastel, "Carne", 0, massa, 5)

	_, errs := f.inventory.ApplySaleBestEffort(context.Background(), saleOrder(f, saleItem(pastel, carne, 2)))

	assert.Empty(t, errs)
	assert.Equal(t, 3, f.products.stockOf(ref(pastel, carne)))
	assert.Equal(t, 9, f.products.stockOf(ref(massa, nil)))
	assert.Len(t, f.products.composites, 1)
}

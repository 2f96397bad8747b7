package service_test

import (
	"testing"
	"time"

	"balcao/internal/cart"
	"balcao/internal/config"
	"balcao/internal/kvstore"
	"balcao/internal/model"
	"balcao/internal/repository"
	"balcao/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fixture wires every service over in-memory stubs for one store with the
// flow [pending, preparing, ready] and an open cash register.
type fixture struct {
	storeID uuid.UUID
	now     time.Time

	products  *stubProductRepo
	orders    *stubOrderRepo
	customers *stubCustomerRepo
	ledger    *stubLoyaltyRepo
	stores    *stubStoreRepo
	registers *stubCashRegisterRepo
	printJobs *stubPrintJobRepo
	jobs      *stubJobs
	events    *eventRecorder
	kv        *kvstore.Memory

	flow      service.OrderFlowService
	inventory service.InventoryService
	loyalty   service.LoyaltyService
	prefs     service.PreferencesService
	checkout  service.CheckoutService
	status    service.OrderStatusService
	carts     service.CartService
	panel     service.PanelService
}

func newFixture(t *testing.T, mode string) *fixture {
	t.Helper()
	f := &fixture{
		storeID:   uuid.New(),
		now:       time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local),
		products:  newStubProductRepo(),
		orders:    newStubOrderRepo(),
		customers: newStubCustomerRepo(),
		ledger:    &stubLoyaltyRepo{},
		stores:    newStubStoreRepo(),
		registers: &stubCashRegisterRepo{},
		printJobs: &stubPrintJobRepo{},
		jobs:      &stubJobs{},
		events:    &eventRecorder{},
		kv:        kvstore.NewMemory(),
	}
	clock := service.Clock(func() time.Time { return f.now })

	alert := "estoque@loja.test"
	courier := "+55 (11) 98888-7777"
	require.NoError(t, f.stores.Create(nil, &model.Store{
		ID:                    f.storeID,
		Name:                  "Pastelaria Central",
		Active:                true,
		MotoboyWhatsappNumber: &courier,
		StockAlertEnabled:     true,
		StockAlertThreshold:   2,
		AlertEmail:            &alert,
	}))
	f.stores.flows[f.storeID] = []model.OrderStatusConfig{
		{StoreID: f.storeID, StatusKey: "pending", DisplayOrder: 1, IsActive: true},
		{StoreID: f.storeID, StatusKey: "preparing", DisplayOrder: 2, IsActive: true},
		{StoreID: f.storeID, StatusKey: "ready", DisplayOrder: 3, IsActive: true},
	}
	f.registers.registers = append(f.registers.registers, &model.CashRegister{
		ID: uuid.New(), StoreID: f.storeID, OpeningAmount: decimal.NewFromInt(100), OpenedAt: f.now.Add(-time.Hour),
	})

	f.flow = service.NewOrderFlowService(f.stores, f.kv, time.Minute)
	f.inventory = service.NewInventoryService(f.products)
	f.loyalty = service.NewLoyaltyService(f.customers, f.ledger)
	f.prefs = service.NewPreferencesService(f.kv, 3)
	f.checkout = service.NewCheckoutService(service.CheckoutDeps{
		Orders:        f.orders,
		Customers:     f.customers,
		Products:      f.products,
		Stores:        f.stores,
		CashRegisters: f.registers,
		PrintJobs:     f.printJobs,
		Flow:          f.flow,
		Inventory:     f.inventory,
		Loyalty:       f.loyalty,
		Prefs:         f.prefs,
		Jobs:          f.jobs,
		Events:        f.events,
	}, service.CheckoutOptions{Mode: mode, OrderNumberPrefix: "PED-", Clock: clock})
	f.status = service.NewOrderStatusService(f.orders, f.flow, f.loyalty, f.jobs, f.events, clock)
	f.carts = service.NewCartService(f.kv, time.Hour, f.products, f.customers, f.inventory, f.checkout, clock)
	f.panel = service.NewPanelService(f.orders, f.stores, f.flow, clock)
	return f
}

func newTxFixture(t *testing.T) *fixture { return newFixture(t, config.CheckoutTransactional) }

func (f *fixture) product(t *testing.T, name string, price string, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		StoreID:       f.storeID,
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		Active:        true,
	}
	require.NoError(t, f.products.Create(nil, p))
	return p
}

func (f *fixture) variation(t *testing.T, p *model.Product, name string, stock int) *model.Variation {
	t.Helper()
	v := &model.Variation{ProductID: p.ID, Name: name, StockQuantity: stock, YieldQuantity: 1, Active: true}
	require.NoError(t, f.products.CreateVariation(nil, v))
	return v
}

// composite adds a variation of p made from raw at yield units per raw unit.
func (f *fixture) composite(t *testing.T, p *model.Product, name string, stock int, raw *model.Product, yield int) *model.Variation {
	t.Helper()
	rawID := raw.ID
	v := &model.Variation{
		ProductID:            p.ID,
		Name:                 name,
		StockQuantity:        stock,
		IsComposite:          true,
		RawMaterialProductID: &rawID,
		YieldQuantity:        yield,
		Active:               true,
	}
	require.NoError(t, f.products.CreateVariation(nil, v))
	return v
}

func (f *fixture) customer(t *testing.T, name, phone string, points int) *model.Customer {
	t.Helper()
	c := &model.Customer{StoreID: f.storeID, Name: name, Phone: phone}
	require.NoError(t, f.customers.Create(nil, c))
	if points > 0 {
		c.Points = points
		f.customers.customers[c.ID].Points = points
		f.ledger.rows = append(f.ledger.rows, model.LoyaltyTransaction{
			ID: uuid.New(), StoreID: f.storeID, CustomerID: c.ID, Points: points,
			Type: model.LoyaltyEarn, Reason: model.ReasonOrderEarn, Description: "saldo inicial",
		})
	}
	return c
}

func (f *fixture) closeRegister() {
	at := f.now
	for _, r := range f.registers.registers {
		r.ClosedAt = &at
	}
}

func line(p *model.Product, v *model.Variation, qty int) cart.Line {
	l := cart.Line{
		ProductID:      p.ID,
		ProductName:    p.Name,
		UnitPrice:      p.Price,
		Quantity:       qty,
		EarnsPoints:    p.EarnsLoyaltyPoints,
		PointsValue:    p.LoyaltyPointsValue,
		CanBeRedeemed:  p.CanBeRedeemedWithPoints,
		RedemptionCost: p.RedemptionPointsCost,
	}
	if v != nil {
		id := v.ID
		l.VariationID = &id
		l.VariationName = v.Name
		l.UnitPrice = v.UnitPrice(p.Price)
		l.IsComposite = v.IsComposite
	}
	return l
}

func cartWith(storeID uuid.UUID, lines ...cart.Line) *cart.Cart {
	c := cart.New(storeID, "pdv-1")
	c.Lines = append(c.Lines, lines...)
	return c
}

func ref(p *model.Product, v *model.Variation) repository.StockRef {
	r := repository.StockRef{ProductID: p.ID}
	if v != nil {
		id := v.ID
		r.VariationID = &id
	}
	return r
}

func requireKind(t *testing.T, err error, kind service.ErrorKind, title string) {
	t.Helper()
	require.Error(t, err)
	ue, ok := service.AsUserError(err)
	require.True(t, ok, "expected UserError, got %v", err)
	require.Equal(t, kind, ue.Kind)
	if title != "" {
		require.Equal(t, title, ue.Title)
	}
}

package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"balcao/internal/dto"
	"balcao/internal/model"
	"balcao/internal/notify"
	"balcao/internal/repository"
	"balcao/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory ProductRepository stub ─────────────────────────────────────────

type stubProductRepo struct {
	mu         sync.Mutex
	products   map[uuid.UUID]*model.Product
	variations map[uuid.UUID]*model.Variation
	links      []model.ProductPackagingLink
	movements  []model.StockMovement
	composites []model.CompositeItemTransaction
	// failOn makes every stock write on that ref fail
	failOn map[string]error
}

var _ repository.ProductRepository = (*stubProductRepo)(nil)

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{
		products:   make(map[uuid.UUID]*model.Product),
		variations: make(map[uuid.UUID]*model.Variation),
		failOn:     make(map[string]error),
	}
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

func (r *stubProductRepo) CreateCategory(_ context.Context, c *model.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) CreateVariation(_ context.Context, v *model.Variation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	r.variations[v.ID] = v
	if p, ok := r.products[v.ProductID]; ok {
		p.HasVariations = true
		p.Variations = append(p.Variations, *v)
	}
	return nil
}

func (r *stubProductRepo) CreatePackagingLink(_ context.Context, l *model.ProductPackagingLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.Packaging = r.products[l.PackagingID]
	r.links = append(r.links, *l)
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	cp.Variations = nil
	for _, v := range p.Variations {
		cp.Variations = append(cp.Variations, *r.variations[v.ID])
	}
	return &cp, nil
}

func (r *stubProductRepo) FindVariation(_ context.Context, id uuid.UUID) (*model.Variation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *stubProductRepo) List(_ context.Context, storeID uuid.UUID, filter dto.ProductFilter) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if p.StoreID == storeID && (p.Active || filter.IncludeInactive) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) PackagingLinks(_ context.Context, storeID, productID uuid.UUID) ([]model.ProductPackagingLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ProductPackagingLink
	for _, l := range r.links {
		if l.StoreID == storeID && l.ProductID == productID {
			out = append(out, l)
		}
	}
	return out, nil
}

// stock returns a pointer to the stock column behind ref.
func (r *stubProductRepo) stock(ref repository.StockRef) (*int, error) {
	if err := r.failOn[ref.String()]; err != nil {
		return nil, err
	}
	if ref.VariationID != nil {
		v, ok := r.variations[*ref.VariationID]
		if !ok {
			return nil, gorm.ErrRecordNotFound
		}
		return &v.StockQuantity, nil
	}
	p, ok := r.products[ref.ProductID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p.StockQuantity, nil
}

func (r *stubProductRepo) StockTx(_ context.Context, _ *gorm.DB, ref repository.StockRef, _ bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.stock(ref)
	if err != nil {
		return 0, err
	}
	return *s, nil
}

func (r *stubProductRepo) DecrementStockTx(_ context.Context, _ *gorm.DB, ref repository.StockRef, qty int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.stock(ref)
	if err != nil {
		return 0, err
	}
	if *s < qty {
		return 0, fmt.Errorf("%s: %w", ref, repository.ErrInsufficientStock)
	}
	*s -= qty
	return *s, nil
}

func (r *stubProductRepo) ClampDecrementStockTx(_ context.Context, _ *gorm.DB, ref repository.StockRef, qty int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.stock(ref)
	if err != nil {
		return 0, err
	}
	*s = max(*s-qty, 0)
	return *s, nil
}

func (r *stubProductRepo) AdjustStockTx(_ context.Context, _ *gorm.DB, ref repository.StockRef, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.stock(ref)
	if err != nil {
		return 0, err
	}
	*s += delta
	return *s, nil
}

func (r *stubProductRepo) CreateMovementTx(_ context.Context, _ *gorm.DB, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubProductRepo) CreateCompositeTx(_ context.Context, _ *gorm.DB, c *model.CompositeItemTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.composites = append(r.composites, *c)
	return nil
}

func (r *stubProductRepo) stockOf(ref repository.StockRef) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.stock(ref)
	if err != nil {
		return -1
	}
	return *s
}

// ── In-memory OrderRepository stub ───────────────────────────────────────────

type stubOrderRepo struct {
	orders    map[uuid.UUID]*model.Order
	createErr error
	itemsErr  error
}

var _ repository.OrderRepository = (*stubOrderRepo)(nil)

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (r *stubOrderRepo) DB() *gorm.DB { return nil }

func (r *stubOrderRepo) Create(_ context.Context, _ *gorm.DB, o *model.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
	for i := range o.Payments {
		o.Payments[i].ID = uuid.New()
		o.Payments[i].OrderID = o.ID
	}
	cp := *o
	cp.Items = nil
	r.orders[o.ID] = &cp
	return nil
}

func (r *stubOrderRepo) CreateItemsTx(_ context.Context, _ *gorm.DB, items []model.OrderItem) error {
	if r.itemsErr != nil {
		return r.itemsErr
	}
	for i := range items {
		items[i].ID = uuid.New()
		if o, ok := r.orders[items[i].OrderID]; ok {
			o.Items = append(o.Items, items[i])
		}
	}
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *stubOrderRepo) ListByStatuses(_ context.Context, storeID uuid.UUID, statuses []string, since time.Time) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.orders {
		if o.StoreID != storeID || o.CreatedAt.Before(since) {
			continue
		}
		for _, s := range statuses {
			if o.Status == s {
				out = append(out, *o)
			}
		}
	}
	return out, nil
}

func (r *stubOrderRepo) UpdateStatusTx(_ context.Context, _ *gorm.DB, id uuid.UUID, from, to string) error {
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return repository.ErrStaleStatus
	}
	o.Status = to
	return nil
}

func (r *stubOrderRepo) SettleReservation(_ context.Context, id uuid.UUID, s repository.Settlement) error {
	o, ok := r.orders[id]
	if !ok || o.Status != s.From {
		return repository.ErrStaleStatus
	}
	o.Status = s.To
	o.PaymentMethod = s.Label
	payments := o.Payments[:0]
	for _, p := range o.Payments {
		if p.Method != s.Deferred {
			payments = append(payments, p)
		}
	}
	o.Payments = append(payments, model.OrderPayment{OrderID: id, Method: s.Method, Amount: o.Total})
	return nil
}

// ── In-memory CustomerRepository stub ────────────────────────────────────────

type stubCustomerRepo struct {
	customers map[uuid.UUID]*model.Customer
	addresses []model.CustomerAddress
	addErr    error
}

var _ repository.CustomerRepository = (*stubCustomerRepo)(nil)

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{customers: make(map[uuid.UUID]*model.Customer)}
}

func (r *stubCustomerRepo) DB() *gorm.DB { return nil }

func (r *stubCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCustomerRepo) FindByPhone(_ context.Context, storeID uuid.UUID, phone string) (*model.Customer, error) {
	for _, c := range r.customers {
		if c.StoreID == storeID && c.Phone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCustomerRepo) ListByStore(_ context.Context, storeID uuid.UUID) ([]model.Customer, error) {
	var out []model.Customer
	for _, c := range r.customers {
		if c.StoreID == storeID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubCustomerRepo) Create(_ context.Context, c *model.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.customers[c.ID] = &cp
	return nil
}

func (r *stubCustomerRepo) AddPointsTx(_ context.Context, _ *gorm.DB, id uuid.UUID, delta int) (int, error) {
	if r.addErr != nil {
		return 0, r.addErr
	}
	c, ok := r.customers[id]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	c.Points += delta
	return c.Points, nil
}

func (r *stubCustomerRepo) DeductPointsTx(_ context.Context, _ *gorm.DB, id uuid.UUID, n int) (int, error) {
	c, ok := r.customers[id]
	if !ok || c.Points < n {
		return 0, repository.ErrInsufficientPoints
	}
	c.Points -= n
	return c.Points, nil
}

func (r *stubCustomerRepo) CreateAddressTx(_ context.Context, _ *gorm.DB, a *model.CustomerAddress) error {
	r.addresses = append(r.addresses, *a)
	return nil
}

func (r *stubCustomerRepo) ListAddresses(_ context.Context, customerID uuid.UUID) ([]model.CustomerAddress, error) {
	var out []model.CustomerAddress
	for _, a := range r.addresses {
		if a.CustomerID == customerID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ── In-memory LoyaltyRepository stub ─────────────────────────────────────────

type stubLoyaltyRepo struct {
	rows      []model.LoyaltyTransaction
	createErr error
}

var _ repository.LoyaltyRepository = (*stubLoyaltyRepo)(nil)

func (r *stubLoyaltyRepo) CreateTx(_ context.Context, _ *gorm.DB, t *model.LoyaltyTransaction) error {
	if r.createErr != nil {
		return r.createErr
	}
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	r.rows = append(r.rows, *t)
	return nil
}

func (r *stubLoyaltyRepo) ListByOrderTx(_ context.Context, _ *gorm.DB, orderID uuid.UUID) ([]model.LoyaltyTransaction, error) {
	var out []model.LoyaltyTransaction
	for _, t := range r.rows {
		if t.OrderID != nil && *t.OrderID == orderID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *stubLoyaltyRepo) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]model.LoyaltyTransaction, error) {
	var out []model.LoyaltyTransaction
	for _, t := range r.rows {
		if t.CustomerID == customerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *stubLoyaltyRepo) SumByCustomer(_ context.Context, customerID uuid.UUID) (int, error) {
	sum := 0
	for _, t := range r.rows {
		if t.CustomerID == customerID {
			sum += t.Points
		}
	}
	return sum, nil
}

// ── In-memory StoreRepository stub ───────────────────────────────────────────

type stubStoreRepo struct {
	stores   map[uuid.UUID]*model.Store
	flows    map[uuid.UUID][]model.OrderStatusConfig
	hours    []model.OperatingHours
	special  []model.SpecialDay
	flowHits int
}

var _ repository.StoreRepository = (*stubStoreRepo)(nil)

func newStubStoreRepo() *stubStoreRepo {
	return &stubStoreRepo{
		stores: make(map[uuid.UUID]*model.Store),
		flows:  make(map[uuid.UUID][]model.OrderStatusConfig),
	}
}

func (r *stubStoreRepo) Create(_ context.Context, s *model.Store) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.stores[s.ID] = s
	return nil
}

func (r *stubStoreRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Store, error) {
	s, ok := r.stores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubStoreRepo) StatusConfig(_ context.Context, storeID uuid.UUID) ([]model.OrderStatusConfig, error) {
	r.flowHits++
	var out []model.OrderStatusConfig
	for _, row := range r.flows[storeID] {
		if row.IsActive {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (r *stubStoreRepo) ReplaceStatusConfig(_ context.Context, storeID uuid.UUID, rows []model.OrderStatusConfig) error {
	r.flows[storeID] = rows
	return nil
}

func (r *stubStoreRepo) OperatingHours(_ context.Context, storeID uuid.UUID) ([]model.OperatingHours, error) {
	var out []model.OperatingHours
	for _, h := range r.hours {
		if h.StoreID == storeID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *stubStoreRepo) SpecialDays(_ context.Context, storeID uuid.UUID) ([]model.SpecialDay, error) {
	var out []model.SpecialDay
	for _, d := range r.special {
		if d.StoreID == storeID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *stubStoreRepo) SaveOperatingHours(_ context.Context, h *model.OperatingHours) error {
	r.hours = append(r.hours, *h)
	return nil
}

func (r *stubStoreRepo) SaveSpecialDay(_ context.Context, d *model.SpecialDay) error {
	r.special = append(r.special, *d)
	return nil
}

// ── In-memory CashRegisterRepository stub ────────────────────────────────────

type stubCashRegisterRepo struct {
	registers []*model.CashRegister
}

var _ repository.CashRegisterRepository = (*stubCashRegisterRepo)(nil)

func (r *stubCashRegisterRepo) Create(_ context.Context, c *model.CashRegister) error {
	c.ID = uuid.New()
	r.registers = append(r.registers, c)
	return nil
}

func (r *stubCashRegisterRepo) FindOpen(_ context.Context, storeID uuid.UUID) (*model.CashRegister, error) {
	for _, c := range r.registers {
		if c.StoreID == storeID && c.ClosedAt == nil {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCashRegisterRepo) Close(_ context.Context, id uuid.UUID, amount decimal.Decimal, notes *string, at time.Time) error {
	for _, c := range r.registers {
		if c.ID == id && c.ClosedAt == nil {
			c.ClosedAt = &at
			c.ClosingAmount = &amount
			c.Notes = notes
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── In-memory PrintJobRepository stub ────────────────────────────────────────

type stubPrintJobRepo struct {
	jobs []*model.PrintJob
}

var _ repository.PrintJobRepository = (*stubPrintJobRepo)(nil)

func (r *stubPrintJobRepo) Create(_ context.Context, j *model.PrintJob) error {
	j.ID = uuid.New()
	r.jobs = append(r.jobs, j)
	return nil
}

func (r *stubPrintJobRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PrintJob, error) {
	for _, j := range r.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPrintJobRepo) Update(_ context.Context, _ *model.PrintJob) error { return nil }

func (r *stubPrintJobRepo) FindPendingRetry(_ context.Context, _ time.Time, _ int) ([]model.PrintJob, error) {
	return nil, nil
}

// ── Jobs recorder ────────────────────────────────────────────────────────────

type deadLetter struct {
	Queue, JobType, Reason string
}

type stubJobs struct {
	mu     sync.Mutex
	prints []worker.PrintJobPayload
	alerts []worker.StockAlertPayload
	dead   []deadLetter
}

func (j *stubJobs) EnqueuePrint(_ context.Context, p worker.PrintJobPayload) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.prints = append(j.prints, p)
	return nil
}

func (j *stubJobs) EnqueueStockAlert(_ context.Context, p worker.StockAlertPayload) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.alerts = append(j.alerts, p)
	return nil
}

func (j *stubJobs) DeadLetter(_ context.Context, queue, jobType string, _ any, reason string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.dead = append(j.dead, deadLetter{Queue: queue, JobType: jobType, Reason: reason})
}

// eventRecorder keeps published events in memory.
type eventRecorder struct {
	mu     sync.Mutex
	events []notify.Event
}

var _ notify.Publisher = (*eventRecorder)(nil)

func (r *eventRecorder) Publish(_ context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *eventRecorder) Events() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

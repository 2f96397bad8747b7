package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"balcao/internal/cart"
	"balcao/internal/config"
	"balcao/internal/dto"
	"balcao/internal/inventory"
	"balcao/internal/model"
	"balcao/internal/notify"
	"balcao/internal/payment"
	"balcao/internal/repository"
	"balcao/internal/schedule"
	"balcao/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Submission is a cart handed to checkout together with everything about the
// order that is not in the cart.
type Submission struct {
	StoreID uuid.UUID
	UserID  *uuid.UUID
	Source  string
	Cart    *cart.Cart
	Request dto.CheckoutRequest
}

type CheckoutService interface {
	FinishOrder(ctx context.Context, sub Submission) (*dto.OrderResponse, error)
}

// CheckoutOptions selects the checkout tier and order numbering.
type CheckoutOptions struct {
	Mode              string
	OrderNumberPrefix string
	Clock             Clock
}

// CheckoutDeps groups the collaborators of CheckoutService. Jobs, Events and
// Prefs may be nil.
type CheckoutDeps struct {
	Orders        repository.OrderRepository
	Customers     repository.CustomerRepository
	Products      repository.ProductRepository
	Stores        repository.StoreRepository
	CashRegisters repository.CashRegisterRepository
	PrintJobs     repository.PrintJobRepository
	Flow          OrderFlowService
	Inventory     InventoryService
	Loyalty       LoyaltyService
	Prefs         PreferencesService
	Jobs          Jobs
	Events        notify.Publisher
}

type checkoutService struct {
	CheckoutDeps
	opts CheckoutOptions
}

func NewCheckoutService(deps CheckoutDeps, opts CheckoutOptions) CheckoutService {
	if opts.Mode != config.CheckoutBestEffort {
		opts.Mode = config.CheckoutTransactional
	}
	if opts.OrderNumberPrefix == "" {
		opts.OrderNumberPrefix = "PED-"
	}
	return &checkoutService{CheckoutDeps: deps, opts: opts}
}

// OrderNumber derives a human-readable number from the millisecond clock.
// Collisions are possible across stores and after 1000 seconds.
func OrderNumber(prefix string, now time.Time) string {
	return fmt.Sprintf("%s%06d", prefix, now.UnixMilli()%1_000_000)
}

// plan is a validated submission ready to be written.
type plan struct {
	store      *model.Store
	method     payment.Method
	total      decimal.Decimal
	points     int
	status     string
	register   *model.CashRegister
	date       *time.Time
	pickup     *string
	customerID *uuid.UUID
}

// ── FinishOrder ──────────────────────────────────────────────────────────────
//  1. Validate the submission; nothing is written when it fails.
//  2. Write order, items, stock, points and address (one transaction in the
//     transactional tier, step by step in the best-effort tier).
//  3. After the order exists: realtime event, print job, low-stock alerts.

func (s *checkoutService) FinishOrder(ctx context.Context, sub Submission) (*dto.OrderResponse, error) {
	p, err := s.validate(ctx, sub)
	if err != nil {
		return nil, err
	}
	order := s.buildOrder(sub, p)

	var (
		changes  []StockChange
		warnings []string
	)
	if s.opts.Mode == config.CheckoutBestEffort {
		changes, warnings, err = s.writeBestEffort(ctx, sub, order, p)
	} else {
		changes, err = s.writeTx(ctx, sub, order, p)
	}
	if err != nil {
		return nil, err
	}

	// The order exists: finish the side effects even if the client went away.
	ctx = context.WithoutCancel(ctx)
	log.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("source", order.Source).
		Str("payment", order.PaymentMethod).
		Str("total", order.Total.StringFixed(2)).
		Msg("order created")

	s.publish(ctx, order)
	if w := s.print(ctx, sub, order); w != "" {
		warnings = append(warnings, w)
	}
	s.alertLowStock(ctx, p.store, changes)

	resp := orderToResponse(order)
	if sub.Source != model.SourceTotem {
		resp.Warnings = warnings
	}
	return &resp, nil
}

func (s *checkoutService) validate(ctx context.Context, sub Submission) (*plan, error) {
	c := sub.Cart
	req := sub.Request
	now := s.opts.Clock.now()

	// 1. non-empty cart
	if c == nil || c.Empty() {
		return nil, validation("Carrinho vazio", "adicione produtos antes de finalizar")
	}
	p := &plan{points: c.PointsToRedeem(), total: c.MonetaryTotal()}
	delivery := req.Delivery != nil
	if delivery && req.DeliveryFee.IsPositive() {
		p.total = p.total.Add(req.DeliveryFee)
	}

	// 2. payment method for a monetary total
	if req.PaymentMethod != "" {
		m, err := payment.ParseMethod(req.PaymentMethod)
		if err != nil {
			return nil, validation("Forma de pagamento inválida", req.PaymentMethod)
		}
		p.method = m
	}
	if p.total.IsPositive() && p.method == "" {
		return nil, validation("Selecione forma de pagamento", "o pedido tem valor a pagar")
	}

	// 3. loyalty is not a method for the remainder of a redemption
	if p.points > 0 && p.method == payment.Loyalty {
		return nil, validation("Forma de pagamento inválida", "escolha outra forma de pagamento para o restante do pedido")
	}

	// 4. delivery address
	if delivery && (strings.TrimSpace(req.Delivery.Address) == "" || strings.TrimSpace(req.Delivery.Neighborhood) == "") {
		return nil, validation("Endereço incompleto", "informe endereço e bairro para entrega")
	}

	// 5. open cash register unless the order is for a later day
	future := false
	if req.ReservationDate != nil && *req.ReservationDate != "" {
		d, err := time.ParseInLocation(schedule.DateLayout, *req.ReservationDate, now.Location())
		if err != nil {
			return nil, validation("Data de reserva inválida", *req.ReservationDate)
		}
		if d.Before(now) && !schedule.SameDay(d, now) {
			return nil, validation("Data de reserva inválida", "a data já passou")
		}
		p.date = &d
		future = schedule.After(d, now)
	}
	if !future {
		reg, err := s.CashRegisters.FindOpen(ctx, sub.StoreID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, validation("Caixa fechado", "abra o caixa para registrar pedidos")
			}
			return nil, persistence("Erro ao consultar caixa", err)
		}
		p.register = reg
	}

	store, err := s.Stores.FindByID(ctx, sub.StoreID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Loja não encontrada")
		}
		return nil, persistence("Erro ao carregar loja", err)
	}
	if !store.Active {
		return nil, validation("Loja inativa", store.Name)
	}
	p.store = store

	if req.PickupTime != nil && *req.PickupTime != "" {
		if _, err := schedule.ParseClock(*req.PickupTime); err != nil {
			return nil, validation("Horário de retirada inválido", *req.PickupTime)
		}
		p.pickup = req.PickupTime
	}
	if future && p.pickup == nil {
		return nil, validation("Informe o horário de retirada", "reservas para outro dia precisam de horário")
	}
	if sub.Source == model.SourceTotem || p.date != nil {
		if err := s.checkHours(ctx, sub.StoreID, p, now); err != nil {
			return nil, err
		}
	}

	if c.Customer != nil {
		id := c.Customer.ID
		p.customerID = &id
	}
	if p.points > 0 {
		if err := s.checkRedemption(ctx, c); err != nil {
			return nil, err
		}
	}
	for _, l := range c.Lines {
		ref := repository.StockRef{ProductID: l.ProductID, VariationID: l.VariationID}
		if err := s.Inventory.CheckLine(ctx, ref, l.Quantity); err != nil {
			if ue, ok := AsUserError(err); ok && ue.Kind == KindValidation {
				ue.Detail = l.DisplayName() + ": " + ue.Detail
			}
			return nil, err
		}
	}

	f, err := s.Flow.Flow(ctx, sub.StoreID)
	if err != nil {
		return nil, err
	}
	initial, err := f.Initial()
	if err != nil {
		return nil, errStoreNotReady
	}
	p.status = string(initial)
	return p, nil
}

func (s *checkoutService) checkHours(ctx context.Context, storeID uuid.UUID, p *plan, now time.Time) error {
	cal, configured, err := storeCalendar(ctx, s.Stores, storeID)
	if err != nil {
		return persistence("Erro ao carregar horários", err)
	}
	if !configured {
		return nil
	}
	date := now
	if p.date != nil {
		date = *p.date
	}
	pickup := ""
	if p.pickup != nil {
		pickup = *p.pickup
	}
	if !cal.IsOpen(date, pickup, now) {
		return validation("Loja fechada", "escolha outro dia ou horário")
	}
	return nil
}

// storeCalendar loads the store's hours. configured is false when the store
// has no hours at all, in which case it is treated as always open.
func storeCalendar(ctx context.Context, stores repository.StoreRepository, storeID uuid.UUID) (schedule.Calendar, bool, error) {
	hours, err := stores.OperatingHours(ctx, storeID)
	if err != nil {
		return schedule.Calendar{}, false, err
	}
	days, err := stores.SpecialDays(ctx, storeID)
	if err != nil {
		return schedule.Calendar{}, false, err
	}
	cal := schedule.Calendar{
		Weekly:  make(map[time.Weekday]schedule.Hours, len(hours)),
		Special: make(map[string]schedule.Hours, len(days)),
	}
	for _, h := range hours {
		cal.Weekly[time.Weekday(h.DayOfWeek)] = schedule.Hours{IsOpen: h.IsOpen, OpenTime: deref(h.OpenTime), CloseTime: deref(h.CloseTime)}
	}
	for _, d := range days {
		cal.Special[d.Date.Format(schedule.DateLayout)] = schedule.Hours{IsOpen: d.IsOpen, OpenTime: deref(d.OpenTime), CloseTime: deref(d.CloseTime)}
	}
	return cal, len(hours)+len(days) > 0, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// checkRedemption re-validates redeemed lines against the live catalog and the
// customer's live balance.
func (s *checkoutService) checkRedemption(ctx context.Context, c *cart.Cart) error {
	if c.Customer == nil {
		return validation("Cliente não identificado", "identifique o cliente para resgatar pontos")
	}
	customer, err := s.Customers.FindByID(ctx, c.Customer.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return notFound("Cliente não encontrado")
		}
		return persistence("Erro ao carregar cliente", err)
	}
	need := 0
	for _, l := range c.Lines {
		if !l.IsRedeemedWithPoints {
			continue
		}
		prod, err := s.Products.FindByID(ctx, l.ProductID)
		if err != nil {
			return persistence("Erro ao carregar produto", err)
		}
		if !prod.CanBeRedeemedWithPoints || prod.RedemptionPointsCost <= 0 {
			return validation("Produto não resgatável", prod.Name)
		}
		need += prod.RedemptionPointsCost * l.Quantity
	}
	if customer.Points < need {
		return validationf("Pontos insuficientes", "necessários: %d, disponíveis: %d", need, customer.Points)
	}
	return nil
}

func (s *checkoutService) buildOrder(sub Submission, p *plan) *model.Order {
	c := sub.Cart
	req := sub.Request
	comp := payment.Compose(p.points, p.method, p.total)
	order := &model.Order{
		StoreID:         sub.StoreID,
		OrderNumber:     OrderNumber(s.opts.OrderNumberPrefix, s.opts.Clock.now()),
		CustomerID:      p.customerID,
		Source:          sub.Source,
		Status:          p.status,
		Total:           p.total,
		PaymentMethod:   comp.Format(),
		ReservationDate: p.date,
		PickupTime:      p.pickup,
		CreatedBy:       sub.UserID,
	}
	if order.Source == "" {
		order.Source = model.SourcePDV
	}
	if p.register != nil {
		order.CashRegisterID = &p.register.ID
	}
	switch {
	case req.CustomerName != nil && *req.CustomerName != "":
		order.CustomerName = req.CustomerName
	case c.Customer != nil:
		order.CustomerName = strPtr(c.Customer.Name)
	}
	if p.method == payment.Cash && req.ChangeFor != nil {
		order.ChangeFor = req.ChangeFor
	}
	if d := req.Delivery; d != nil {
		order.Delivery = true
		order.DeliveryFee = req.DeliveryFee
		order.DeliveryAddress = strPtr(strings.TrimSpace(d.Address))
		order.DeliveryNumber = strPtr(d.Number)
		order.DeliveryNeighborhood = strPtr(strings.TrimSpace(d.Neighborhood))
		order.DeliveryReference = strPtr(d.Reference)
		order.DeliveryCEP = strPtr(d.CEP)
	}
	for _, part := range comp {
		order.Payments = append(order.Payments, model.OrderPayment{Method: string(part.Method), Amount: part.Amount})
	}
	for _, l := range c.Lines {
		it := model.OrderItem{
			ProductID:            l.ProductID,
			VariationID:          l.VariationID,
			ProductName:          l.ProductName,
			VariationName:        strPtr(l.VariationName),
			ProductPrice:         l.UnitPrice,
			Quantity:             l.Quantity,
			Subtotal:             l.Subtotal(),
			IsRedeemedWithPoints: l.IsRedeemedWithPoints,
		}
		if l.IsRedeemedWithPoints {
			it.ProductPrice = decimal.Zero
		} else if l.EarnsPoints {
			it.LoyaltyPointsEarned = l.PointsValue * l.Quantity
		}
		order.Items = append(order.Items, it)
	}
	return order
}

func (s *checkoutService) address(sub Submission, order *model.Order) *model.CustomerAddress {
	d := sub.Request.Delivery
	if d == nil || !d.SaveAddress || order.CustomerID == nil {
		return nil
	}
	return &model.CustomerAddress{
		CustomerID:   *order.CustomerID,
		Address:      *order.DeliveryAddress,
		Number:       order.DeliveryNumber,
		Neighborhood: *order.DeliveryNeighborhood,
		Reference:    order.DeliveryReference,
		CEP:          order.DeliveryCEP,
	}
}

// writeItems persists the items and copies the generated IDs back onto order.
func (s *checkoutService) writeItems(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	items := make([]model.OrderItem, len(order.Items))
	for i, it := range order.Items {
		it.OrderID = order.ID
		items[i] = it
	}
	if err := s.Orders.CreateItemsTx(ctx, tx, items); err != nil {
		return err
	}
	order.Items = items
	return nil
}

func (s *checkoutService) writeTx(ctx context.Context, sub Submission, order *model.Order, p *plan) ([]StockChange, error) {
	var changes []StockChange
	err := runTx(ctx, s.Orders.DB(), func(tx *gorm.DB) error {
		if err := s.Orders.Create(ctx, tx, order); err != nil {
			return persistence("Erro ao criar pedido", err)
		}
		if err := s.writeItems(ctx, tx, order); err != nil {
			return persistence("Erro ao salvar itens do pedido", err)
		}
		c, err := s.Inventory.ApplySaleTx(ctx, tx, order)
		if err != nil {
			return err
		}
		changes = c
		if err := s.Loyalty.RedeemTx(ctx, tx, order, p.points); err != nil {
			return err
		}
		if a := s.address(sub, order); a != nil {
			if err := s.Customers.CreateAddressTx(ctx, tx, a); err != nil {
				return persistence("Erro ao salvar endereço", err)
			}
		}
		return nil
	})
	if err != nil {
		if _, ok := AsUserError(err); ok {
			return nil, err
		}
		return nil, persistence("Erro ao finalizar pedido", err)
	}
	return changes, nil
}

func (s *checkoutService) writeBestEffort(ctx context.Context, sub Submission, order *model.Order, p *plan) ([]StockChange, []string, error) {
	if err := s.Orders.Create(ctx, nil, order); err != nil {
		return nil, nil, persistence("Erro ao criar pedido", err)
	}
	ctx = context.WithoutCancel(ctx)
	if err := s.writeItems(ctx, nil, order); err != nil {
		s.reconcileFailure(ctx, order, "items", err)
		return nil, nil, &UserError{
			Kind:   KindPersistence,
			Title:  "Pedido criado com falha nos itens",
			Detail: fmt.Sprintf("pedido %s: %v", order.OrderNumber, err),
			Err:    err,
		}
	}

	var warnings []string
	changes, errs := s.Inventory.ApplySaleBestEffort(ctx, order)
	for _, err := range errs {
		s.reconcileFailure(ctx, order, "stock", err)
		warnings = append(warnings, "Estoque: "+err.Error())
	}
	if err := s.Loyalty.RedeemTx(ctx, nil, order, p.points); err != nil {
		s.reconcileFailure(ctx, order, "loyalty", err)
		warnings = append(warnings, "Pontos: "+err.Error())
	}
	if a := s.address(sub, order); a != nil {
		if err := s.Customers.CreateAddressTx(ctx, nil, a); err != nil {
			s.reconcileFailure(ctx, order, "address", err)
			warnings = append(warnings, "Endereço: "+err.Error())
		}
	}
	return changes, warnings, nil
}

type reconcilePayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Step        string `json:"step"`
	Error       string `json:"error"`
}

// reconcileFailure logs a post-commit step failure and dead-letters it for
// manual reconciliation.
func (s *checkoutService) reconcileFailure(ctx context.Context, order *model.Order, step string, err error) {
	log.Error().Err(err).
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("step", step).
		Msg("order reconciliation failed")
	if s.Jobs != nil {
		s.Jobs.DeadLetter(ctx, worker.QueueReconcile, step, reconcilePayload{
			OrderID:     order.ID.String(),
			OrderNumber: order.OrderNumber,
			Step:        step,
			Error:       err.Error(),
		}, err.Error())
	}
}

func (s *checkoutService) publish(ctx context.Context, order *model.Order) {
	if s.Events == nil {
		return
	}
	ev := notify.Event{
		Type:        notify.OrderCreated,
		StoreID:     order.StoreID,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		At:          s.opts.Clock.now(),
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("order event not published")
	}
}

// print queues a receipt when the submitting device has printing enabled.
func (s *checkoutService) print(ctx context.Context, sub Submission, order *model.Order) string {
	if s.Jobs == nil || s.PrintJobs == nil {
		return ""
	}
	device := sub.Request.DeviceID
	if s.Prefs != nil {
		on, err := s.Prefs.PrintEnabled(ctx, sub.StoreID, device)
		if err != nil {
			log.Warn().Err(err).Str("device_id", device).Msg("print preference unavailable")
		}
		if !on {
			return ""
		}
	}
	job := &model.PrintJob{StoreID: order.StoreID, OrderID: order.ID, DeviceID: device, Status: model.PrintPending}
	if err := s.PrintJobs.Create(ctx, job); err != nil {
		log.Error().Err(err).Str("order_id", order.ID.String()).Msg("print job not created")
		return "Impressão: " + err.Error()
	}
	if err := s.Jobs.EnqueuePrint(ctx, worker.PrintJobPayload{PrintJobID: job.ID.String()}); err != nil {
		log.Error().Err(err).Str("print_job_id", job.ID.String()).Msg("print job not enqueued")
		return "Impressão: " + err.Error()
	}
	return ""
}

func (s *checkoutService) alertLowStock(ctx context.Context, store *model.Store, changes []StockChange) {
	if s.Jobs == nil || store == nil || !store.StockAlertEnabled || store.AlertEmail == nil || *store.AlertEmail == "" {
		return
	}
	seen := make(map[string]bool, len(changes))
	for i := len(changes) - 1; i >= 0; i-- {
		ch := changes[i]
		key := ch.Ref.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		if !inventory.LowStock(ch.After, store.StockAlertThreshold) {
			continue
		}
		err := s.Jobs.EnqueueStockAlert(ctx, worker.StockAlertPayload{
			StoreID:   store.ID.String(),
			StoreName: store.Name,
			ToEmail:   *store.AlertEmail,
			Item:      ch.Name,
			Stock:     ch.After,
			Threshold: store.StockAlertThreshold,
		})
		if err != nil {
			log.Warn().Err(err).Str("item", ch.Name).Msg("stock alert not enqueued")
		}
	}
}

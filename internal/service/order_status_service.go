package service

import (
	"context"
	"errors"

	"balcao/internal/dto"
	"balcao/internal/model"
	"balcao/internal/notify"
	"balcao/internal/orderflow"
	"balcao/internal/payment"
	"balcao/internal/repository"
	"balcao/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type OrderStatusService interface {
	// Advance moves the order to the next status of the store's flow, or to
	// delivered from the last one. A reservation cannot be delivered this way:
	// the caller gets a conflict listing the settlement methods.
	Advance(ctx context.Context, storeID, orderID uuid.UUID) (*dto.TransitionResponse, error)
	// CompleteReservation settles a reservation with method and delivers it.
	CompleteReservation(ctx context.Context, storeID, orderID uuid.UUID, method string) (*dto.TransitionResponse, error)
	Cancel(ctx context.Context, storeID, orderID uuid.UUID, confirmed bool) (*dto.TransitionResponse, error)
}

type orderStatusService struct {
	orders  repository.OrderRepository
	flow    OrderFlowService
	loyalty LoyaltyService
	jobs    Jobs
	events  notify.Publisher
	clock   Clock
}

func NewOrderStatusService(
	orders repository.OrderRepository,
	flow OrderFlowService,
	loyalty LoyaltyService,
	jobs Jobs,
	events notify.Publisher,
	clock Clock,
) OrderStatusService {
	return &orderStatusService{orders: orders, flow: flow, loyalty: loyalty, jobs: jobs, events: events, clock: clock}
}

func (s *orderStatusService) load(ctx context.Context, storeID, orderID uuid.UUID) (*model.Order, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Pedido não encontrado")
		}
		return nil, persistence("Erro ao carregar pedido", err)
	}
	if o.StoreID != storeID {
		return nil, notFound("Pedido não encontrado")
	}
	return o, nil
}

// target resolves where the advance action takes o.
func (s *orderStatusService) target(ctx context.Context, o *model.Order) (orderflow.Status, error) {
	f, err := s.flow.Flow(ctx, o.StoreID)
	if err != nil {
		return "", err
	}
	to, err := f.Advance(orderflow.Status(o.Status))
	switch {
	case errors.Is(err, orderflow.ErrAlreadyFinalized):
		return "", validation("Pedido já finalizado", orderflow.Status(o.Status).Label())
	case err != nil:
		return "", &UserError{Kind: KindValidation, Title: "Status inválido", Detail: o.Status, Err: err}
	}
	return to, nil
}

// deferred reports whether o is still awaiting payment.
func deferred(o *model.Order) bool {
	for _, p := range o.Payments {
		if payment.Method(p.Method) == payment.Reservation {
			return true
		}
	}
	return payment.IsReservation(o.PaymentMethod)
}

// settledLabel is o's payment label with the deferred part replaced by m.
func settledLabel(o *model.Order, m payment.Method) string {
	if len(o.Payments) == 0 {
		return m.Label()
	}
	comp := make(payment.Composition, 0, len(o.Payments))
	for _, p := range o.Payments {
		method := payment.Method(p.Method)
		if method == payment.Reservation {
			method = m
		}
		comp = append(comp, payment.Part{Method: method, Amount: p.Amount})
	}
	return comp.Format()
}

func settlementOptions() []string {
	ms := payment.SettlementMethods()
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Label())
	}
	return out
}

func staleErr(err error) error {
	if errors.Is(err, repository.ErrStaleStatus) {
		return &UserError{Kind: KindConflict, Title: "Pedido atualizado por outra pessoa", Detail: "recarregue o painel", Err: err}
	}
	return persistence("Erro ao atualizar pedido", err)
}

// ── Advance ──────────────────────────────────────────────────────────────────

func (s *orderStatusService) Advance(ctx context.Context, storeID, orderID uuid.UUID) (*dto.TransitionResponse, error) {
	o, err := s.load(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}
	to, err := s.target(ctx, o)
	if err != nil {
		return nil, err
	}
	if to == orderflow.Delivered && deferred(o) {
		return nil, &UserError{
			Kind:    KindConflict,
			Title:   "Selecione a forma de pagamento",
			Detail:  "pedido reservado precisa ser pago antes da entrega",
			Options: settlementOptions(),
		}
	}
	from := o.Status
	if err := s.orders.UpdateStatusTx(ctx, nil, o.ID, from, string(to)); err != nil {
		return nil, staleErr(err)
	}
	o.Status = string(to)
	resp := s.transition(ctx, o, from)
	if to == orderflow.Delivered {
		resp.Warnings = s.earn(ctx, o)
	}
	return resp, nil
}

// ── CompleteReservation ──────────────────────────────────────────────────────

func (s *orderStatusService) CompleteReservation(ctx context.Context, storeID, orderID uuid.UUID, method string) (*dto.TransitionResponse, error) {
	m, err := payment.ParseMethod(method)
	if err != nil || !payment.IsSettlement(m) {
		return nil, &UserError{Kind: KindValidation, Title: "Forma de pagamento inválida", Detail: method, Options: settlementOptions()}
	}
	o, err := s.load(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}
	if !deferred(o) {
		return nil, validation("Pedido não é uma reserva", o.PaymentMethod)
	}
	to, err := s.target(ctx, o)
	if err != nil {
		return nil, err
	}
	if to != orderflow.Delivered {
		return nil, validationf("Pedido ainda não está pronto", "próximo status: %s", to.Label())
	}
	from := o.Status
	label := settledLabel(o, m)
	err = s.orders.SettleReservation(ctx, o.ID, repository.Settlement{
		From:     from,
		To:       string(orderflow.Delivered),
		Deferred: string(payment.Reservation),
		Method:   string(m),
		Label:    label,
	})
	if err != nil {
		return nil, staleErr(err)
	}
	o.Status = string(orderflow.Delivered)
	o.PaymentMethod = label
	resp := s.transition(ctx, o, from)
	resp.Warnings = s.earn(ctx, o)
	return resp, nil
}

// ── Cancel ───────────────────────────────────────────────────────────────────

func (s *orderStatusService) Cancel(ctx context.Context, storeID, orderID uuid.UUID, confirmed bool) (*dto.TransitionResponse, error) {
	if !confirmed {
		return nil, validation("Confirme o cancelamento", "o cancelamento não pode ser desfeito")
	}
	o, err := s.load(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}
	if orderflow.Status(o.Status).Terminal() {
		return nil, validation("Pedido já finalizado", orderflow.Status(o.Status).Label())
	}
	from := o.Status
	if err := s.orders.UpdateStatusTx(ctx, nil, o.ID, from, string(orderflow.Cancelled)); err != nil {
		return nil, staleErr(err)
	}
	o.Status = string(orderflow.Cancelled)
	resp := s.transition(ctx, o, from)

	returned, err := s.loyalty.ReverseForCancellation(context.WithoutCancel(ctx), o)
	if err != nil {
		log.Error().Err(err).Str("order_id", o.ID.String()).Msg("loyalty reversal failed")
		if s.jobs != nil {
			s.jobs.DeadLetter(ctx, worker.QueueReconcile, "loyalty_reversal", reconcilePayload{
				OrderID:     o.ID.String(),
				OrderNumber: o.OrderNumber,
				Step:        "loyalty_reversal",
				Error:       err.Error(),
			}, err.Error())
		}
		resp.Warnings = append(resp.Warnings, "Pontos não devolvidos: "+err.Error())
	} else if returned > 0 {
		log.Info().Str("order_id", o.ID.String()).Int("points", returned).Msg("loyalty points returned")
	}
	return resp, nil
}

func (s *orderStatusService) earn(ctx context.Context, o *model.Order) []string {
	n, err := s.loyalty.EarnForOrder(context.WithoutCancel(ctx), o)
	if err != nil {
		log.Error().Err(err).Str("order_id", o.ID.String()).Msg("loyalty earn failed")
		return []string{"Pontos não creditados: " + err.Error()}
	}
	if n > 0 {
		log.Info().Str("order_id", o.ID.String()).Int("points", n).Msg("loyalty points earned")
	}
	return nil
}

func (s *orderStatusService) transition(ctx context.Context, o *model.Order, from string) *dto.TransitionResponse {
	log.Info().
		Str("order_id", o.ID.String()).
		Str("from", from).
		Str("to", o.Status).
		Msg("order status changed")
	if s.events != nil {
		ev := notify.Event{
			Type:        notify.OrderStatusChanged,
			StoreID:     o.StoreID,
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			Status:      o.Status,
			At:          s.clock.now(),
		}
		if err := s.events.Publish(ctx, ev); err != nil {
			log.Warn().Err(err).Str("order_id", o.ID.String()).Msg("order event not published")
		}
	}
	return &dto.TransitionResponse{
		OrderID:       o.ID.String(),
		From:          from,
		To:            o.Status,
		StatusLabel:   orderflow.Status(o.Status).Label(),
		PaymentMethod: o.PaymentMethod,
	}
}

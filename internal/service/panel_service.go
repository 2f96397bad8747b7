package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"balcao/internal/dto"
	"balcao/internal/model"
	"balcao/internal/orderflow"
	"balcao/internal/repository"

	"github.com/google/uuid"
)

// PanelService feeds the kitchen/fulfillment order panel.
type PanelService interface {
	// Board groups the store's orders into one column per visible status, in
	// flow order, newest first. Delivered and cancelled columns only hold
	// today's orders.
	Board(ctx context.Context, storeID uuid.UUID) (*dto.BoardResponse, error)
	Order(ctx context.Context, storeID, orderID uuid.UUID) (*dto.OrderResponse, error)
	// CourierLink builds the WhatsApp deep link that hands a delivery order to
	// the store's courier.
	CourierLink(ctx context.Context, storeID, orderID uuid.UUID) (*dto.CourierLinkResponse, error)
}

type panelService struct {
	orders repository.OrderRepository
	stores repository.StoreRepository
	flow   OrderFlowService
	clock  Clock
}

func NewPanelService(orders repository.OrderRepository, stores repository.StoreRepository, flow OrderFlowService, clock Clock) PanelService {
	return &panelService{orders: orders, stores: stores, flow: flow, clock: clock}
}

// OutsideFlowColumn holds open orders whose status left the store's flow after
// they were placed. Advance still moves them on.
const OutsideFlowColumn = "outside_flow"

func (s *panelService) Board(ctx context.Context, storeID uuid.UUID) (*dto.BoardResponse, error) {
	f, err := s.flow.Flow(ctx, storeID)
	if err != nil {
		return nil, err
	}
	// every open status, not just the flow's: the flow may have been
	// reconfigured under orders that are still moving
	active := make([]string, 0, len(orderflow.Open()))
	for _, st := range orderflow.Open() {
		active = append(active, string(st))
	}
	open, err := s.orders.ListByStatuses(ctx, storeID, active, time.Time{})
	if err != nil {
		return nil, persistence("Erro ao carregar pedidos", err)
	}
	now := s.clock.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	done, err := s.orders.ListByStatuses(ctx, storeID, []string{string(orderflow.Delivered), string(orderflow.Cancelled)}, today)
	if err != nil {
		return nil, persistence("Erro ao carregar pedidos", err)
	}

	byStatus := make(map[string][]dto.OrderResponse)
	for _, list := range [][]model.Order{open, done} {
		for i := range list {
			o := &list[i]
			byStatus[o.Status] = append(byStatus[o.Status], orderToResponse(o))
		}
	}
	var outside []dto.OrderResponse
	for _, st := range orderflow.Open() {
		if !f.Contains(st) {
			outside = append(outside, byStatus[string(st)]...)
		}
	}

	board := &dto.BoardResponse{}
	for _, st := range f.Visible() {
		if st == orderflow.Delivered && len(outside) > 0 {
			board.Columns = append(board.Columns, dto.BoardColumn{Status: OutsideFlowColumn, Label: "Fora do fluxo", Orders: outside})
		}
		orders := byStatus[string(st)]
		if orders == nil {
			orders = []dto.OrderResponse{}
		}
		board.Columns = append(board.Columns, dto.BoardColumn{Status: string(st), Label: st.Label(), Orders: orders})
	}
	return board, nil
}

func (s *panelService) load(ctx context.Context, storeID, orderID uuid.UUID) (*model.Order, error) {
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

func (s *panelService) Order(ctx context.Context, storeID, orderID uuid.UUID) (*dto.OrderResponse, error) {
	o, err := s.load(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}
	resp := orderToResponse(o)
	return &resp, nil
}

func (s *panelService) CourierLink(ctx context.Context, storeID, orderID uuid.UUID) (*dto.CourierLinkResponse, error) {
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return nil, persistence("Erro ao carregar loja", err)
	}
	number := digits(deref(store.MotoboyWhatsappNumber))
	if number == "" {
		return nil, validation("Número do motoboy não configurado", "configure o WhatsApp do motoboy nas configurações da loja")
	}
	o, err := s.load(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Delivery {
		return nil, validation("Pedido não é entrega", o.OrderNumber)
	}
	msg := CourierMessage(o)
	return &dto.CourierLinkResponse{URL: WhatsAppURL(number, msg), Message: msg}, nil
}

// CourierMessage is the WhatsApp text sent to the courier for a delivery order.
func CourierMessage(o *model.Order) string {
	name, phone := "N/A", "N/A"
	if o.Customer != nil {
		name, phone = o.Customer.Name, o.Customer.Phone
	} else if o.CustomerName != nil && *o.CustomerName != "" {
		name = *o.CustomerName
	}
	var b strings.Builder
	b.WriteString("*NOVO PEDIDO DE ENTREGA*\n\n")
	fmt.Fprintf(&b, "*Pedido:* #%s\n", o.OrderNumber)
	fmt.Fprintf(&b, "*Cliente:* %s\n", name)
	fmt.Fprintf(&b, "*Telefone:* %s\n", phone)
	fmt.Fprintf(&b, "*Endereço:* %s, %s\n", deref(o.DeliveryAddress), deref(o.DeliveryNumber))
	if n := deref(o.DeliveryNeighborhood); n != "" {
		fmt.Fprintf(&b, "*Bairro:* %s\n", n)
	}
	if r := deref(o.DeliveryReference); r != "" {
		fmt.Fprintf(&b, "*Referência:* %s\n", r)
	}
	fmt.Fprintf(&b, "*Total:* R$ %s\n", o.Total.StringFixed(2))
	fmt.Fprintf(&b, "*Pagamento:* %s\n", o.PaymentMethod)
	if o.ChangeFor != nil {
		fmt.Fprintf(&b, "*Troco para:* R$ %s\n", o.ChangeFor.StringFixed(2))
	}
	b.WriteString("\n*Itens:*\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %dx %s", it.Quantity, it.ProductName)
		if it.VariationName != nil && *it.VariationName != "" {
			fmt.Fprintf(&b, " (%s)", *it.VariationName)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// WhatsAppURL is the wa.me deep link for number with text prefilled.
func WhatsAppURL(number, text string) string {
	return "https://wa.me/" + number + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

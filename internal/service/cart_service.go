package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"balcao/internal/cart"
	"balcao/internal/dto"
	"balcao/internal/kvstore"
	"balcao/internal/model"
	"balcao/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CartService keeps carts in the key-value store between requests and hands
// them to checkout.
type CartService interface {
	Create(ctx context.Context, storeID uuid.UUID, deviceID string) (*dto.CartResponse, error)
	Get(ctx context.Context, storeID, cartID uuid.UUID) (*dto.CartResponse, error)
	Discard(ctx context.Context, storeID, cartID uuid.UUID) error
	// SetCustomer binds the customer with phone, creating it when a name is given.
	SetCustomer(ctx context.Context, storeID, cartID uuid.UUID, req dto.SetCustomerRequest) (*dto.CartResponse, error)
	ClearCustomer(ctx context.Context, storeID, cartID uuid.UUID) (*dto.CartResponse, error)
	// AddItem adds one unit, refusing it when stock cannot cover the new quantity.
	AddItem(ctx context.Context, storeID, cartID uuid.UUID, req dto.CartLineRequest) (*dto.CartResponse, error)
	// UpdateQuantity sets a line's quantity; 0 removes it. When stock cannot
	// cover the new quantity the line keeps its previous one.
	UpdateQuantity(ctx context.Context, storeID, cartID uuid.UUID, req dto.UpdateQuantityRequest) (*dto.CartResponse, error)
	ToggleRedeem(ctx context.Context, storeID, cartID uuid.UUID, req dto.CartLineRequest) (*dto.CartResponse, error)
	Checkout(ctx context.Context, storeID uuid.UUID, userID *uuid.UUID, cartID uuid.UUID, req dto.CheckoutRequest) (*dto.OrderResponse, error)
	// TotemOrder builds a cart from a kiosk request and submits it at once.
	TotemOrder(ctx context.Context, storeID uuid.UUID, req dto.TotemOrderRequest) (*dto.OrderResponse, error)
}

type cartService struct {
	kv        kvstore.Store
	ttl       time.Duration
	products  repository.ProductRepository
	customers repository.CustomerRepository
	inventory InventoryService
	checkout  CheckoutService
	clock     Clock
}

func NewCartService(
	kv kvstore.Store,
	ttl time.Duration,
	products repository.ProductRepository,
	customers repository.CustomerRepository,
	inventory InventoryService,
	checkout CheckoutService,
	clock Clock,
) CartService {
	return &cartService{
		kv:        kv,
		ttl:       ttl,
		products:  products,
		customers: customers,
		inventory: inventory,
		checkout:  checkout,
		clock:     clock,
	}
}

func cartKey(id uuid.UUID) string { return "cart:" + id.String() }

func (s *cartService) load(ctx context.Context, storeID, cartID uuid.UUID) (*cart.Cart, error) {
	var c cart.Cart
	if err := kvstore.GetJSON(ctx, s.kv, cartKey(cartID), &c); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, notFound("Carrinho não encontrado")
		}
		return nil, err
	}
	if c.StoreID != storeID {
		return nil, notFound("Carrinho não encontrado")
	}
	return &c, nil
}

func (s *cartService) save(ctx context.Context, c *cart.Cart) (*dto.CartResponse, error) {
	c.UpdatedAt = s.clock.now()
	if err := kvstore.SetJSON(ctx, s.kv, cartKey(c.ID), c, s.ttl); err != nil {
		return nil, err
	}
	return cartToResponse(c), nil
}

func (s *cartService) Create(ctx context.Context, storeID uuid.UUID, deviceID string) (*dto.CartResponse, error) {
	return s.save(ctx, cart.New(storeID, deviceID))
}

func (s *cartService) Get(ctx context.Context, storeID, cartID uuid.UUID) (*dto.CartResponse, error) {
	c, err := s.load(ctx, storeID, cartID)
	if err != nil {
		return nil, err
	}
	return cartToResponse(c), nil
}

func (s *cartService) Discard(ctx context.Context, storeID, cartID uuid.UUID) error {
	if _, err := s.load(ctx, storeID, cartID); err != nil {
		return err
	}
	return s.kv.Delete(ctx, cartKey(cartID))
}

// ── Customer ─────────────────────────────────────────────────────────────────

func (s *cartService) findOrCreateCustomer(ctx context.Context, storeID uuid.UUID, phone, name string) (*model.Customer, error) {
	phone = strings.TrimSpace(phone)
	cu, err := s.customers.FindByPhone(ctx, storeID, phone)
	if err == nil {
		return cu, nil
	}
	if !repository.IsNotFound(err) {
		return nil, persistence("Erro ao buscar cliente", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, notFound("Cliente não encontrado")
	}
	cu = &model.Customer{StoreID: storeID, Phone: phone, Name: name}
	if err := s.customers.Create(ctx, cu); err != nil {
		return nil, persistence("Erro ao cadastrar cliente", err)
	}
	log.Info().Str("customer_id", cu.ID.String()).Str("store_id", storeID.String()).Msg("customer created")
	return cu, nil
}

func toCartCustomer(cu *model.Customer) *cart.Customer {
	return &cart.Customer{ID: cu.ID, Name: cu.Name, Phone: cu.Phone, Points: cu.Points}
}

func (s *cartService) SetCustomer(ctx context.Context, storeID, cartID uuid.UUID, req dto.SetCustomerRequest) (*dto.CartResponse, error) {
	c, err := s.load(ctx, storeID, cartID)
	if err != nil {
		return nil, err
	}
	cu, err := s.findOrCreateCustomer(ctx, storeID, req.Phone, req.Name)
	if err != nil {
		return nil, err
	}
	if c.Customer != nil && c.Customer.ID != cu.ID {
		c.SetCustomer(nil)
	}
	c.SetCustomer(toCartCustomer(cu))
	return s.save(ctx, c)
}

func (s *cartService) ClearCustomer(ctx context.Context, storeID, cartID uuid.UUID) (*dto.CartResponse, error) {
	c, err := s.load(ctx, storeID, cartID)
	if err != nil {
		return nil, err
	}
	c.SetCustomer(nil)
	return s.save(ctx, c)
}

// ── Lines ────────────────────────────────────────────────────────────────────

func parseLineRequest(req dto.CartLineRequest) (uuid.UUID, *uuid.UUID, error) {
	pid, err := uuid.Parse(req.ProductID)
	if err != nil {
		return uuid.Nil, nil, validation("Produto inválido", req.ProductID)
	}
	if req.VariationID == nil || *req.VariationID == "" {
		return pid, nil, nil
	}
	vid, err := uuid.Parse(*req.VariationID)
	if err != nil {
		return uuid.Nil, nil, validation("Variação inválida", *req.VariationID)
	}
	return pid, &vid, nil
}

// lineFor builds a cart line from the live catalog.
func (s *cartService) lineFor(ctx context.Context, storeID uuid.UUID, req dto.CartLineRequest) (cart.Line, error) {
	pid, vid, err := parseLineRequest(req)
	if err != nil {
		return cart.Line{}, err
	}
	p, err := s.products.FindByID(ctx, pid)
	if err != nil {
		if repository.IsNotFound(err) {
			return cart.Line{}, notFound("Produto não encontrado")
		}
		return cart.Line{}, persistence("Erro ao carregar produto", err)
	}
	if p.StoreID != storeID || !p.Active {
		return cart.Line{}, notFound("Produto não encontrado")
	}
	l := cart.Line{
		ProductID:      p.ID,
		ProductName:    p.Name,
		UnitPrice:      p.Price,
		EarnsPoints:    p.EarnsLoyaltyPoints,
		PointsValue:    p.LoyaltyPointsValue,
		CanBeRedeemed:  p.CanBeRedeemedWithPoints,
		RedemptionCost: p.RedemptionPointsCost,
	}
	if vid == nil {
		if p.HasVariations {
			return cart.Line{}, validation("Selecione uma variação", p.Name)
		}
		return l, nil
	}
	for _, v := range p.Variations {
		if v.ID != *vid {
			continue
		}
		id := v.ID
		l.VariationID = &id
		l.VariationName = v.Name
		l.UnitPrice = v.UnitPrice(p.Price)
		l.IsComposite = v.IsComposite && v.RawMaterialProductID != nil
		return l, nil
	}
	return cart.Line{}, notFound("Variação não encontrada")
}

func stockRefOf(k cart.Key) repository.StockRef {
	ref := repository.StockRef{ProductID: k.ProductID}
	if k.VariationID != uuid.Nil {
		v := k.VariationID
		ref.VariationID = &v
	}
	return ref
}

func (s *cartService) AddItem(ctx context.Context, storeID, cartID uuid.UUID, req dto.CartLineRequest) (*dto.CartResponse, error) {
	c, err := s.load(ctx, storeID, cartID)
	if err != nil {
		return nil, err
	}
	l, err := s.lineFor(ctx, storeID, req)
	if err != nil {
		return nil, err
	}
	k := l.Key()
	if err := s.inventory.CheckLine(ctx, stockRefOf(k), c.Quantity(k)+1); err != nil {
		return nil, err
	}
	c.Add(l)
	return s.save(ctx, c)
}

func (s *cartService) UpdateQuantity(ctx context.Context, storeID, cartID uuid.UUID, req dto.UpdateQuantityRequest) (*dto.CartResponse, error) {
	c, err := s.load(ctx, storeID, cartID)
	if err != nil {
		return nil, err
	}
	pid, vid, err := parseLineRequest(req.CartLineRequest)
	if err != nil {
		return nil, err
	}
	k := cart.Line{ProductID: pid, VariationID: vid}.Key()
	current, ok := c.Line(k)
	if !ok {
		return nil, notFound("Item não está no carrinho")
	}
	if req.Quantity > current.Quantity {
		if err := s.inventory.CheckLine(ctx, stockRefOf(k), req.Quantity); err != nil {
			return nil, err
		}
	}
	if err := c.SetQuantity(k, req.Quantity); err != nil {
		return nil, notFound("Item não está no carrinho")
	}
	return s.save(ctx, c)
}

func redeemErr(err error) error {
	switch {
	case errors.Is(err, cart.ErrLineNotFound):
		return notFound("Item não está no carrinho")
	case errors.Is(err, cart.ErrNoCustomer):
		return &UserError{Kind: KindValidation, Title: "Cliente não identificado", Detail: "identifique o cliente para resgatar pontos", Err: err}
	case errors.Is(err, cart.ErrNotRedeemable):
		return &UserError{Kind: KindValidation, Title: "Produto não resgatável", Err: err}
	case errors.Is(err, cart.ErrInsufficientPoints):
		return &UserError{Kind: KindValidation, Title: "Pontos insuficientes", Err: err}
	}
	return err
}

func (s *cartService) ToggleRedeem(ctx context.Context, storeID, cartID uuid.UUID, req dto.CartLineRequest) (*dto.CartResponse, error) {
	c, err := s.load(ctx, storeID, cartID)
	if err != nil {
		return nil, err
	}
	pid, vid, err := parseLineRequest(req)
	if err != nil {
		return nil, err
	}
	// points are checked against the balance at the moment of toggling
	if c.Customer != nil {
		if cu, err := s.customers.FindByID(ctx, c.Customer.ID); err == nil {
			c.Customer.Points = cu.Points
		}
	}
	if _, err := c.ToggleRedeem(cart.Line{ProductID: pid, VariationID: vid}.Key()); err != nil {
		return nil, redeemErr(err)
	}
	return s.save(ctx, c)
}

// ── Checkout ─────────────────────────────────────────────────────────────────

func (s *cartService) Checkout(ctx context.Context, storeID uuid.UUID, userID *uuid.UUID, cartID uuid.UUID, req dto.CheckoutRequest) (*dto.OrderResponse, error) {
	c, err := s.load(ctx, storeID, cartID)
	if err != nil {
		return nil, err
	}
	if req.DeviceID == "" {
		req.DeviceID = c.DeviceID
	}
	resp, err := s.checkout.FinishOrder(ctx, Submission{
		StoreID: storeID,
		UserID:  userID,
		Source:  model.SourcePDV,
		Cart:    c,
		Request: req,
	})
	if err != nil {
		return nil, err
	}
	if err := s.kv.Delete(context.WithoutCancel(ctx), cartKey(cartID)); err != nil {
		log.Warn().Err(err).Str("cart_id", cartID.String()).Msg("cart not cleared after checkout")
	}
	return resp, nil
}

func (s *cartService) TotemOrder(ctx context.Context, storeID uuid.UUID, req dto.TotemOrderRequest) (*dto.OrderResponse, error) {
	c := cart.New(storeID, req.DeviceID)
	if strings.TrimSpace(req.Phone) != "" {
		cu, err := s.findOrCreateCustomer(ctx, storeID, req.Phone, req.Name)
		if err != nil {
			return nil, err
		}
		c.SetCustomer(toCartCustomer(cu))
	}
	var redeem []cart.Key
	for _, it := range req.Items {
		l, err := s.lineFor(ctx, storeID, dto.CartLineRequest{ProductID: it.ProductID, VariationID: it.VariationID})
		if err != nil {
			return nil, err
		}
		k := l.Key()
		c.Add(l)
		if err := c.SetQuantity(k, c.Quantity(k)-1+it.Quantity); err != nil {
			return nil, err
		}
		if it.RedeemWithPoints {
			redeem = append(redeem, k)
		}
	}
	for _, k := range redeem {
		if l, _ := c.Line(k); l.IsRedeemedWithPoints {
			continue
		}
		if _, err := c.ToggleRedeem(k); err != nil {
			return nil, redeemErr(err)
		}
	}
	if req.CustomerName == nil && c.Customer == nil && strings.TrimSpace(req.Name) != "" {
		name := strings.TrimSpace(req.Name)
		req.CustomerName = &name
	}
	return s.checkout.FinishOrder(ctx, Submission{
		StoreID: storeID,
		Source:  model.SourceTotem,
		Cart:    c,
		Request: req.CheckoutRequest,
	})
}

func cartToResponse(c *cart.Cart) *dto.CartResponse {
	resp := &dto.CartResponse{
		ID:             c.ID.String(),
		StoreID:        c.StoreID.String(),
		Lines:          make([]dto.CartLineResponse, 0, len(c.Lines)),
		ItemCount:      c.ItemCount(),
		MonetaryTotal:  c.MonetaryTotal(),
		PointsToRedeem: c.PointsToRedeem(),
	}
	if cu := c.Customer; cu != nil {
		resp.Customer = &dto.CustomerResponse{ID: cu.ID.String(), Name: cu.Name, Phone: cu.Phone, Points: cu.Points}
	}
	for _, l := range c.Lines {
		lr := dto.CartLineResponse{
			ProductID:            l.ProductID.String(),
			Name:                 l.DisplayName(),
			UnitPrice:            l.UnitPrice,
			Quantity:             l.Quantity,
			Subtotal:             l.Subtotal(),
			IsComposite:          l.IsComposite,
			CanBeRedeemed:        l.CanBeRedeemed,
			RequiredPoints:       l.RequiredPoints(),
			IsRedeemedWithPoints: l.IsRedeemedWithPoints,
		}
		if l.VariationID != nil {
			id := l.VariationID.String()
			lr.VariationID = &id
		}
		resp.Lines = append(resp.Lines, lr)
	}
	return resp
}

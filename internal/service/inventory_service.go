package service

import (
	"context"
	"errors"
	"fmt"

	"balcao/internal/inventory"
	"balcao/internal/model"
	"balcao/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// StockChange is the stock left on one product or variation after a sale.
type StockChange struct {
	Ref   repository.StockRef
	Name  string
	After int
}

type InventoryService interface {
	// CheckLine validates that quantity units of ref can be sold. Composite
	// variations only fail when the raw material cannot cover the part of the
	// line beyond the variation's own stock.
	CheckLine(ctx context.Context, ref repository.StockRef, quantity int) error
	// ApplySaleTx applies every stock effect of order inside tx. Any shortage
	// or write failure is returned and must roll the transaction back.
	ApplySaleTx(ctx context.Context, tx *gorm.DB, order *model.Order) ([]StockChange, error)
	// ApplySaleBestEffort applies the same effects without a transaction in
	// three steps (sale, composite manufacturing, packaging). Lines run
	// concurrently within a step; a failed line never stops the others.
	ApplySaleBestEffort(ctx context.Context, order *model.Order) ([]StockChange, []error)
}

type inventoryService struct {
	products repository.ProductRepository
}

func NewInventoryService(products repository.ProductRepository) InventoryService {
	return &inventoryService{products: products}
}

// saleLine is an order item resolved against the catalog.
type saleLine struct {
	item      model.OrderItem
	ref       repository.StockRef
	name      string
	composite *model.Variation // set only for composite variations with a raw material
	raw       repository.StockRef
	rawName   string
}

func lineName(item model.OrderItem) string {
	if item.VariationName != nil && *item.VariationName != "" {
		return item.ProductName + " - " + *item.VariationName
	}
	return item.ProductName
}

func rawRef(v *model.Variation) repository.StockRef {
	return repository.StockRef{ProductID: *v.RawMaterialProductID, VariationID: v.RawMaterialVariationID}
}

func (s *inventoryService) resolve(ctx context.Context, item model.OrderItem) (saleLine, error) {
	l := saleLine{
		item: item,
		ref:  repository.StockRef{ProductID: item.ProductID, VariationID: item.VariationID},
		name: lineName(item),
	}
	if item.VariationID == nil {
		return l, nil
	}
	v, err := s.products.FindVariation(ctx, *item.VariationID)
	if err != nil {
		return l, fmt.Errorf("variação de %s: %w", l.name, err)
	}
	if !v.IsComposite || v.RawMaterialProductID == nil {
		return l, nil
	}
	l.composite = v
	l.raw = rawRef(v)
	l.rawName = "matéria-prima"
	if p, err := s.products.FindByID(ctx, l.raw.ProductID); err == nil {
		l.rawName = p.Name
	}
	return l, nil
}

// ── CheckLine ────────────────────────────────────────────────────────────────

func (s *inventoryService) CheckLine(ctx context.Context, ref repository.StockRef, quantity int) error {
	if ref.VariationID != nil {
		v, err := s.products.FindVariation(ctx, *ref.VariationID)
		if err != nil {
			if repository.IsNotFound(err) {
				return notFound("Variação não encontrada")
			}
			return persistence("Erro ao consultar estoque", err)
		}
		if v.IsComposite && v.RawMaterialProductID != nil {
			need := inventory.CompositeIncrementNeed(v.StockQuantity, quantity, v.YieldQuantity)
			if need == 0 {
				return nil
			}
			raw, err := s.products.StockTx(ctx, nil, rawRef(v), false)
			if err != nil {
				return persistence("Erro ao consultar matéria-prima", err)
			}
			if need > raw {
				return validationf("Matéria-prima insuficiente", "%s precisa de %d unidade(s) de matéria-prima, disponível: %d", v.Name, need, raw)
			}
			return nil
		}
	}
	stock, err := s.products.StockTx(ctx, nil, ref, false)
	if err != nil {
		if repository.IsNotFound(err) {
			return notFound("Produto não encontrado")
		}
		return persistence("Erro ao consultar estoque", err)
	}
	if !inventory.CanSell(stock, quantity) {
		return validationf("Estoque insuficiente", "disponível: %d", stock)
	}
	return nil
}

func stockErr(name string, err error) error {
	if errors.Is(err, repository.ErrInsufficientStock) {
		return &UserError{Kind: KindValidation, Title: "Estoque insuficiente", Detail: name, Err: err}
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (s *inventoryService) movement(ctx context.Context, tx *gorm.DB, order *model.Order, ref repository.StockRef, kind string, qty, before, after int) error {
	m := &model.StockMovement{
		StoreID:     order.StoreID,
		ProductID:   ref.ProductID,
		VariationID: ref.VariationID,
		Kind:        kind,
		Quantity:    qty,
		StockBefore: before,
		StockAfter:  after,
		Reason:      "Pedido " + order.OrderNumber,
		OrderID:     &order.ID,
	}
	return s.products.CreateMovementTx(ctx, tx, m)
}

func (s *inventoryService) compositeRecord(ctx context.Context, tx *gorm.DB, order *model.Order, l saleLine, plan inventory.CompositePlan) error {
	rec := &model.CompositeItemTransaction{
		OrderID:                order.ID,
		VariationID:            l.composite.ID,
		RawMaterialProductID:   l.composite.RawMaterialProductID,
		RawMaterialVariationID: l.composite.RawMaterialVariationID,
		RawMaterialConsumed:    plan.RawConsumed,
		VariationsGenerated:    plan.Generated,
	}
	if l.item.ID != uuid.Nil {
		id := l.item.ID
		rec.OrderItemID = &id
	}
	return s.products.CreateCompositeTx(ctx, tx, rec)
}

// ── Transactional tier ───────────────────────────────────────────────────────

func (s *inventoryService) ApplySaleTx(ctx context.Context, tx *gorm.DB, order *model.Order) ([]StockChange, error) {
	var changes []StockChange
	for _, item := range order.Items {
		l, err := s.resolve(ctx, item)
		if err != nil {
			return nil, err
		}
		c, err := s.saleTx(ctx, tx, order, l)
		if err != nil {
			return nil, err
		}
		changes = append(changes, c...)
		c, errs := s.packaging(ctx, tx, order, item)
		if len(errs) > 0 {
			return nil, errs[0]
		}
		changes = append(changes, c...)
	}
	return changes, nil
}

func (s *inventoryService) saleTx(ctx context.Context, tx *gorm.DB, order *model.Order, l saleLine) ([]StockChange, error) {
	qty := l.item.Quantity
	if l.composite == nil {
		after, err := s.products.DecrementStockTx(ctx, tx, l.ref, qty)
		if err != nil {
			return nil, stockErr(l.name, err)
		}
		if err := s.movement(ctx, tx, order, l.ref, model.MovementSale, -qty, after+qty, after); err != nil {
			return nil, err
		}
		return []StockChange{{Ref: l.ref, Name: l.name, After: after}}, nil
	}

	before, err := s.products.StockTx(ctx, tx, l.ref, true)
	if err != nil {
		return nil, stockErr(l.name, err)
	}
	after, err := s.products.AdjustStockTx(ctx, tx, l.ref, -qty)
	if err != nil {
		return nil, stockErr(l.name, err)
	}
	if err := s.movement(ctx, tx, order, l.ref, model.MovementSale, -qty, before, after); err != nil {
		return nil, err
	}
	plan := inventory.PlanComposite(before, qty, l.composite.YieldQuantity)
	if !plan.Manufactured {
		return []StockChange{{Ref: l.ref, Name: l.name, After: after}}, nil
	}

	rawAfter, err := s.products.DecrementStockTx(ctx, tx, l.raw, plan.RawConsumed)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, &UserError{Kind: KindValidation, Title: "Matéria-prima insuficiente", Detail: l.rawName, Err: err}
		}
		return nil, err
	}
	if err := s.movement(ctx, tx, order, l.raw, model.MovementCompositeConsumption, -plan.RawConsumed, rawAfter+plan.RawConsumed, rawAfter); err != nil {
		return nil, err
	}
	final, err := s.products.AdjustStockTx(ctx, tx, l.ref, plan.Generated)
	if err != nil {
		return nil, err
	}
	if err := s.movement(ctx, tx, order, l.ref, model.MovementCompositeYield, plan.Generated, after, final); err != nil {
		return nil, err
	}
	if err := s.compositeRecord(ctx, tx, order, l, plan); err != nil {
		return nil, err
	}
	return []StockChange{
		{Ref: l.ref, Name: l.name, After: final},
		{Ref: l.raw, Name: l.rawName, After: rawAfter},
	}, nil
}

// packaging consumes the packaging linked to item's product, floored at zero.
// A packaging shortage never blocks the sale.
func (s *inventoryService) packaging(ctx context.Context, tx *gorm.DB, order *model.Order, item model.OrderItem) ([]StockChange, []error) {
	links, err := s.products.PackagingLinks(ctx, order.StoreID, item.ProductID)
	if err != nil {
		return nil, []error{fmt.Errorf("embalagens de %s: %w", item.ProductName, err)}
	}
	var (
		changes []StockChange
		errs    []error
	)
	for _, link := range links {
		usage := inventory.PackagingUsage(link.Quantity, item.Quantity)
		if usage == 0 {
			continue
		}
		ref := repository.StockRef{ProductID: link.PackagingID}
		name := "embalagem"
		if link.Packaging != nil {
			name = link.Packaging.Name
		}
		after, err := s.products.ClampDecrementStockTx(ctx, tx, ref, usage)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if err := s.movement(ctx, tx, order, ref, model.MovementPackaging, -usage, after+usage, after); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		changes = append(changes, StockChange{Ref: ref, Name: name, After: after})
	}
	return changes, errs
}

// ── Best-effort tier ─────────────────────────────────────────────────────────

type lineResult struct {
	changes []StockChange
	errs    []error
}

func (s *inventoryService) ApplySaleBestEffort(ctx context.Context, order *model.Order) ([]StockChange, []error) {
	n := len(order.Items)
	lines := make([]saleLine, n)
	afterSale := make([]int, n)
	sold := make([]bool, n)
	results := make([]lineResult, n)

	// sale decrement
	parallel(n, func(i int) {
		l, err := s.resolve(ctx, order.Items[i])
		lines[i] = l
		if err != nil {
			results[i].errs = append(results[i].errs, err)
			return
		}
		after, err := s.saleBestEffort(ctx, order, l)
		if err != nil {
			results[i].errs = append(results[i].errs, err)
			return
		}
		afterSale[i], sold[i] = after, true
		if l.composite == nil {
			results[i].changes = append(results[i].changes, StockChange{Ref: l.ref, Name: l.name, After: after})
		}
	})

	// composite manufacturing
	parallel(n, func(i int) {
		l := lines[i]
		if !sold[i] || l.composite == nil {
			return
		}
		c, err := s.manufactureBestEffort(ctx, order, l, afterSale[i])
		results[i].changes = append(results[i].changes, c...)
		if err != nil {
			results[i].errs = append(results[i].errs, err)
		}
	})

	// packaging
	parallel(n, func(i int) {
		c, errs := s.packaging(ctx, nil, order, order.Items[i])
		results[i].changes = append(results[i].changes, c...)
		results[i].errs = append(results[i].errs, errs...)
	})

	var (
		changes []StockChange
		errs    []error
	)
	for _, r := range results {
		changes = append(changes, r.changes...)
		errs = append(errs, r.errs...)
	}
	return changes, errs
}

func (s *inventoryService) saleBestEffort(ctx context.Context, order *model.Order, l saleLine) (int, error) {
	qty := l.item.Quantity
	if l.composite != nil {
		after, err := s.products.AdjustStockTx(ctx, nil, l.ref, -qty)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", l.name, err)
		}
		if err := s.movement(ctx, nil, order, l.ref, model.MovementSale, -qty, after+qty, after); err != nil {
			log.Warn().Err(err).Str("order_id", order.ID.String()).Str("item", l.name).Msg("stock movement not recorded")
		}
		return after, nil
	}
	before, err := s.products.StockTx(ctx, nil, l.ref, false)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", l.name, err)
	}
	after, err := s.products.ClampDecrementStockTx(ctx, nil, l.ref, qty)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", l.name, err)
	}
	if before < qty {
		log.Warn().
			Str("order_id", order.ID.String()).
			Str("item", l.name).
			Int("stock_before", before).
			Int("sold", qty).
			Msg("oversell: stock clamped at zero")
	}
	if err := s.movement(ctx, nil, order, l.ref, model.MovementSale, -qty, before, after); err != nil {
		log.Warn().Err(err).Str("order_id", order.ID.String()).Str("item", l.name).Msg("stock movement not recorded")
	}
	return after, nil
}

func (s *inventoryService) manufactureBestEffort(ctx context.Context, order *model.Order, l saleLine, afterSale int) ([]StockChange, error) {
	qty := l.item.Quantity
	plan := inventory.PlanComposite(afterSale+qty, qty, l.composite.YieldQuantity)
	if !plan.Manufactured {
		return []StockChange{{Ref: l.ref, Name: l.name, After: afterSale}}, nil
	}
	rawAfter, err := s.products.ClampDecrementStockTx(ctx, nil, l.raw, plan.RawConsumed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.rawName, err)
	}
	final, err := s.products.AdjustStockTx(ctx, nil, l.ref, plan.Generated)
	if err != nil {
		return []StockChange{{Ref: l.raw, Name: l.rawName, After: rawAfter}}, fmt.Errorf("%s: %w", l.name, err)
	}
	changes := []StockChange{
		{Ref: l.ref, Name: l.name, After: final},
		{Ref: l.raw, Name: l.rawName, After: rawAfter},
	}
	if err := s.movement(ctx, nil, order, l.raw, model.MovementCompositeConsumption, -plan.RawConsumed, rawAfter+plan.RawConsumed, rawAfter); err != nil {
		log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("stock movement not recorded")
	}
	if err := s.movement(ctx, nil, order, l.ref, model.MovementCompositeYield, plan.Generated, afterSale, final); err != nil {
		log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("stock movement not recorded")
	}
	if err := s.compositeRecord(ctx, nil, order, l, plan); err != nil {
		return changes, fmt.Errorf("registro de produção de %s: %w", l.name, err)
	}
	return changes, nil
}

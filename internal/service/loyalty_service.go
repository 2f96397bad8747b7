package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"balcao/internal/dto"
	"balcao/internal/model"
	"balcao/internal/payment"
	"balcao/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// LoyaltyService keeps customers.points and the ledger in step: every balance
// change is written together with one LoyaltyTransaction of the same amount.
type LoyaltyService interface {
	// CanRedeem reports whether balance covers quantity units at cost points each.
	CanRedeem(balance, cost, quantity int) bool
	// RedeemTx debits points from the order's customer and records the
	// redemption. It fails with a validation error when the balance is short.
	RedeemTx(ctx context.Context, tx *gorm.DB, order *model.Order, points int) error
	// ReverseForCancellation returns the points redeemed by a cancelled order.
	// It is a no-op for orders not paid with loyalty points, orders without a
	// customer, and orders already reversed.
	ReverseForCancellation(ctx context.Context, order *model.Order) (int, error)
	// EarnForOrder credits the points earned by a delivered order, once.
	EarnForOrder(ctx context.Context, order *model.Order) (int, error)
	// Audit compares the customer's balance with the sum of the ledger.
	Audit(ctx context.Context, storeID, customerID uuid.UUID) (*dto.LoyaltyAuditResponse, error)
	// AuditStore audits every customer of the store.
	AuditStore(ctx context.Context, storeID uuid.UUID) ([]dto.LoyaltyAuditResponse, error)
	History(ctx context.Context, storeID, customerID uuid.UUID) ([]dto.LoyaltyTransactionResponse, error)
}

type loyaltyService struct {
	customers repository.CustomerRepository
	ledger    repository.LoyaltyRepository
}

func NewLoyaltyService(customers repository.CustomerRepository, ledger repository.LoyaltyRepository) LoyaltyService {
	return &loyaltyService{customers: customers, ledger: ledger}
}

func (s *loyaltyService) CanRedeem(balance, cost, quantity int) bool {
	return cost > 0 && quantity > 0 && balance >= cost*quantity
}

// RedeemTx debits points and writes the matching ledger row. Without a
// caller transaction both writes run in one of their own.
func (s *loyaltyService) RedeemTx(ctx context.Context, tx *gorm.DB, order *model.Order, points int) error {
	if points <= 0 {
		return nil
	}
	if order.CustomerID == nil {
		return validation("Cliente não identificado", "identifique o cliente para resgatar pontos")
	}
	if tx != nil {
		return s.redeem(ctx, tx, order, points)
	}
	return runTx(ctx, s.customers.DB(), func(tx *gorm.DB) error {
		return s.redeem(ctx, tx, order, points)
	})
}

func (s *loyaltyService) redeem(ctx context.Context, tx *gorm.DB, order *model.Order, points int) error {
	if _, err := s.customers.DeductPointsTx(ctx, tx, *order.CustomerID, points); err != nil {
		if errors.Is(err, repository.ErrInsufficientPoints) {
			return &UserError{Kind: KindValidation, Title: "Pontos insuficientes", Detail: fmt.Sprintf("necessários: %d", points), Err: err}
		}
		return fmt.Errorf("debitando pontos: %w", err)
	}
	err := s.ledger.CreateTx(ctx, tx, &model.LoyaltyTransaction{
		StoreID:     order.StoreID,
		CustomerID:  *order.CustomerID,
		OrderID:     &order.ID,
		Points:      -points,
		Type:        model.LoyaltyRedeem,
		Reason:      model.ReasonRedemption,
		Description: fmt.Sprintf("Resgate de %d pontos no pedido %s", points, order.OrderNumber),
	})
	if err == nil {
		return nil
	}
	if tx == nil {
		// no transaction to roll back: give the points back by hand
		if _, cerr := s.customers.AddPointsTx(ctx, nil, *order.CustomerID, points); cerr != nil {
			log.Error().Err(cerr).Str("order_id", order.ID.String()).Int("points", points).
				Msg("loyalty redeem compensation failed")
		}
	}
	return fmt.Errorf("registrando resgate do pedido %s: %w", order.OrderNumber, err)
}

func hasReason(rows []model.LoyaltyTransaction, reason string) bool {
	for _, r := range rows {
		if r.Reason == reason {
			return true
		}
	}
	return false
}

func (s *loyaltyService) ReverseForCancellation(ctx context.Context, order *model.Order) (int, error) {
	if order.CustomerID == nil || !payment.IsLoyalty(order.PaymentMethod) {
		return 0, nil
	}
	returned := 0
	err := runTx(ctx, s.customers.DB(), func(tx *gorm.DB) error {
		rows, err := s.ledger.ListByOrderTx(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if hasReason(rows, model.ReasonRedemptionReversal) {
			log.Info().Str("order_id", order.ID.String()).Msg("loyalty reversal already recorded")
			return nil
		}
		total := 0
		for _, r := range rows {
			if r.Type == model.LoyaltyRedeem {
				total += abs(r.Points)
			}
		}
		if total == 0 {
			return nil
		}
		if _, err := s.customers.AddPointsTx(ctx, tx, *order.CustomerID, total); err != nil {
			return err
		}
		if err := s.ledger.CreateTx(ctx, tx, &model.LoyaltyTransaction{
			StoreID:     order.StoreID,
			CustomerID:  *order.CustomerID,
			OrderID:     &order.ID,
			Points:      total,
			Type:        model.LoyaltyEarn,
			Reason:      model.ReasonRedemptionReversal,
			Description: fmt.Sprintf("Pontos devolvidos por cancelamento do pedido %s", order.OrderNumber),
		}); err != nil {
			return err
		}
		returned = total
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("devolvendo pontos do pedido %s: %w", order.OrderNumber, err)
	}
	return returned, nil
}

func (s *loyaltyService) EarnForOrder(ctx context.Context, order *model.Order) (int, error) {
	if order.CustomerID == nil {
		return 0, nil
	}
	earned := 0
	for _, it := range order.Items {
		if !it.IsRedeemedWithPoints {
			earned += it.LoyaltyPointsEarned
		}
	}
	if earned <= 0 {
		return 0, nil
	}
	credited := 0
	err := runTx(ctx, s.customers.DB(), func(tx *gorm.DB) error {
		rows, err := s.ledger.ListByOrderTx(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if hasReason(rows, model.ReasonOrderEarn) {
			return nil
		}
		if _, err := s.customers.AddPointsTx(ctx, tx, *order.CustomerID, earned); err != nil {
			return err
		}
		if err := s.ledger.CreateTx(ctx, tx, &model.LoyaltyTransaction{
			StoreID:     order.StoreID,
			CustomerID:  *order.CustomerID,
			OrderID:     &order.ID,
			Points:      earned,
			Type:        model.LoyaltyEarn,
			Reason:      model.ReasonOrderEarn,
			Description: fmt.Sprintf("Pontos ganhos no pedido %s", order.OrderNumber),
		}); err != nil {
			return err
		}
		credited = earned
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("creditando pontos do pedido %s: %w", order.OrderNumber, err)
	}
	return credited, nil
}

// customer loads a customer of storeID.
func (s *loyaltyService) customer(ctx context.Context, storeID, customerID uuid.UUID) (*model.Customer, error) {
	c, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Cliente não encontrado")
		}
		return nil, persistence("Erro ao carregar cliente", err)
	}
	if c.StoreID != storeID {
		return nil, notFound("Cliente não encontrado")
	}
	return c, nil
}

// Audit compares the stored balance with the ledger sum. Customers start at
// zero points, so both must match.
func (s *loyaltyService) Audit(ctx context.Context, storeID, customerID uuid.UUID) (*dto.LoyaltyAuditResponse, error) {
	c, err := s.customer(ctx, storeID, customerID)
	if err != nil {
		return nil, err
	}
	sum, err := s.ledger.SumByCustomer(ctx, customerID)
	if err != nil {
		return nil, persistence("Erro ao somar pontos", err)
	}
	resp := &dto.LoyaltyAuditResponse{
		CustomerID: customerID.String(),
		Balance:    c.Points,
		LedgerSum:  sum,
		Consistent: c.Points == sum,
	}
	if !resp.Consistent {
		log.Warn().Str("customer_id", customerID.String()).Int("balance", c.Points).Int("ledger_sum", sum).Msg("loyalty ledger out of balance")
	}
	return resp, nil
}

func (s *loyaltyService) AuditStore(ctx context.Context, storeID uuid.UUID) ([]dto.LoyaltyAuditResponse, error) {
	customers, err := s.customers.ListByStore(ctx, storeID)
	if err != nil {
		return nil, persistence("Erro ao listar clientes", err)
	}
	out := make([]dto.LoyaltyAuditResponse, 0, len(customers))
	for i := range customers {
		a, err := s.Audit(ctx, storeID, customers[i].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

func (s *loyaltyService) History(ctx context.Context, storeID, customerID uuid.UUID) ([]dto.LoyaltyTransactionResponse, error) {
	if _, err := s.customer(ctx, storeID, customerID); err != nil {
		return nil, err
	}
	rows, err := s.ledger.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, persistence("Erro ao carregar extrato", err)
	}
	out := make([]dto.LoyaltyTransactionResponse, 0, len(rows))
	for _, r := range rows {
		tr := dto.LoyaltyTransactionResponse{
			ID:          r.ID.String(),
			Points:      r.Points,
			Type:        r.Type,
			Reason:      r.Reason,
			Description: r.Description,
			CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		}
		if r.OrderID != nil {
			id := r.OrderID.String()
			tr.OrderID = &id
		}
		out = append(out, tr)
	}
	return out, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

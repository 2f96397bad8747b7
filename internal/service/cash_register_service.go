package service

import (
	"context"
	"time"

	"balcao/internal/dto"
	"balcao/internal/model"
	"balcao/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CashRegisterService manages the store's cash register session. Immediate
// orders can only be taken while a session is open.
type CashRegisterService interface {
	Open(ctx context.Context, storeID uuid.UUID, userID *uuid.UUID, req dto.OpenCashRegisterRequest) (*dto.CashRegisterResponse, error)
	Close(ctx context.Context, storeID uuid.UUID, req dto.CloseCashRegisterRequest) (*dto.CashRegisterResponse, error)
	Current(ctx context.Context, storeID uuid.UUID) (*dto.CashRegisterResponse, error)
}

type cashRegisterService struct {
	repo  repository.CashRegisterRepository
	clock Clock
}

func NewCashRegisterService(repo repository.CashRegisterRepository, clock Clock) CashRegisterService {
	return &cashRegisterService{repo: repo, clock: clock}
}

// ── Open ─────────────────────────────────────────────────────────────────────

func (s *cashRegisterService) Open(ctx context.Context, storeID uuid.UUID, userID *uuid.UUID, req dto.OpenCashRegisterRequest) (*dto.CashRegisterResponse, error) {
	// Guard: one open session per store
	if _, err := s.repo.FindOpen(ctx, storeID); err == nil {
		return nil, &UserError{Kind: KindConflict, Title: "Caixa já aberto", Detail: "feche o caixa atual antes de abrir outro"}
	} else if !repository.IsNotFound(err) {
		return nil, persistence("Erro ao consultar caixa", err)
	}
	c := &model.CashRegister{
		StoreID:       storeID,
		OpenedBy:      userID,
		OpeningAmount: req.OpeningAmount,
		OpenedAt:      s.clock.now(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, persistence("Erro ao abrir caixa", err)
	}
	log.Info().Str("store_id", storeID.String()).Str("cash_register_id", c.ID.String()).Msg("cash register opened")
	return cashRegisterToResponse(c), nil
}

// ── Close ────────────────────────────────────────────────────────────────────

func (s *cashRegisterService) Close(ctx context.Context, storeID uuid.UUID, req dto.CloseCashRegisterRequest) (*dto.CashRegisterResponse, error) {
	c, err := s.repo.FindOpen(ctx, storeID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, validation("Caixa fechado", "não há caixa aberto")
		}
		return nil, persistence("Erro ao consultar caixa", err)
	}
	now := s.clock.now()
	if err := s.repo.Close(ctx, c.ID, req.ClosingAmount, req.Notes, now); err != nil {
		return nil, persistence("Erro ao fechar caixa", err)
	}
	amount := req.ClosingAmount
	c.ClosingAmount = &amount
	c.ClosedAt = &now
	c.Notes = req.Notes
	log.Info().Str("store_id", storeID.String()).Str("cash_register_id", c.ID.String()).Msg("cash register closed")
	return cashRegisterToResponse(c), nil
}

func (s *cashRegisterService) Current(ctx context.Context, storeID uuid.UUID) (*dto.CashRegisterResponse, error) {
	c, err := s.repo.FindOpen(ctx, storeID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Caixa fechado")
		}
		return nil, persistence("Erro ao consultar caixa", err)
	}
	return cashRegisterToResponse(c), nil
}

func cashRegisterToResponse(c *model.CashRegister) *dto.CashRegisterResponse {
	resp := &dto.CashRegisterResponse{
		ID:            c.ID.String(),
		StoreID:       c.StoreID.String(),
		OpeningAmount: c.OpeningAmount,
		ClosingAmount: c.ClosingAmount,
		OpenedAt:      c.OpenedAt.Format(time.RFC3339),
	}
	if c.ClosedAt != nil {
		t := c.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &t
	}
	return resp
}

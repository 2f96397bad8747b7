package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"balcao/internal/dto"
	"balcao/internal/kvstore"
	"balcao/internal/model"
	"balcao/internal/orderflow"
	"balcao/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type OrderFlowService interface {
	// Flow returns the store's active flow. A store without one is not ready:
	// the error is a validation UserError wrapping orderflow.ErrEmptyFlow.
	Flow(ctx context.Context, storeID uuid.UUID) (orderflow.Flow, error)
	Configure(ctx context.Context, storeID uuid.UUID, req dto.FlowConfigRequest) (*dto.FlowResponse, error)
	Describe(ctx context.Context, storeID uuid.UUID) (*dto.FlowResponse, error)
}

type orderFlowService struct {
	stores repository.StoreRepository
	cache  kvstore.Store
	ttl    time.Duration
}

func NewOrderFlowService(stores repository.StoreRepository, cache kvstore.Store, ttl time.Duration) OrderFlowService {
	return &orderFlowService{stores: stores, cache: cache, ttl: ttl}
}

func flowKey(storeID uuid.UUID) string { return "flow:" + storeID.String() }

var errStoreNotReady = &UserError{
	Kind:   KindValidation,
	Title:  "Loja não configurada",
	Detail: "configure o fluxo de status dos pedidos antes de receber pedidos",
	Err:    orderflow.ErrEmptyFlow,
}

func (s *orderFlowService) Flow(ctx context.Context, storeID uuid.UUID) (orderflow.Flow, error) {
	var keys []string
	if s.cache != nil {
		err := kvstore.GetJSON(ctx, s.cache, flowKey(storeID), &keys)
		if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
			log.Warn().Err(err).Str("store_id", storeID.String()).Msg("flow cache read failed")
		}
	}
	if keys == nil {
		rows, err := s.stores.StatusConfig(ctx, storeID)
		if err != nil {
			return orderflow.Flow{}, persistence("Erro ao carregar fluxo de pedidos", err)
		}
		keys = make([]string, 0, len(rows))
		for _, r := range rows {
			keys = append(keys, r.StatusKey)
		}
		if s.cache != nil && len(keys) > 0 {
			if err := kvstore.SetJSON(ctx, s.cache, flowKey(storeID), keys, s.ttl); err != nil {
				log.Warn().Err(err).Str("store_id", storeID.String()).Msg("flow cache write failed")
			}
		}
	}
	if len(keys) == 0 {
		return orderflow.Flow{}, errStoreNotReady
	}
	f, err := orderflow.ParseFlow(keys)
	if err != nil {
		return orderflow.Flow{}, &UserError{Kind: KindValidation, Title: "Fluxo de pedidos inválido", Detail: err.Error(), Err: err}
	}
	return f, nil
}

func (s *orderFlowService) Configure(ctx context.Context, storeID uuid.UUID, req dto.FlowConfigRequest) (*dto.FlowResponse, error) {
	f, err := orderflow.ParseFlow(req.Statuses)
	if err != nil {
		return nil, &UserError{Kind: KindValidation, Title: "Fluxo de pedidos inválido", Detail: err.Error(), Err: err}
	}
	rows := make([]model.OrderStatusConfig, 0, len(req.Statuses))
	for i, st := range f.Steps() {
		rows = append(rows, model.OrderStatusConfig{
			StoreID:      storeID,
			StatusKey:    string(st),
			StatusLabel:  st.Label(),
			DisplayOrder: i + 1,
			IsActive:     true,
		})
	}
	if err := s.stores.ReplaceStatusConfig(ctx, storeID, rows); err != nil {
		return nil, persistence("Erro ao salvar fluxo de pedidos", err)
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, flowKey(storeID)); err != nil {
			return nil, fmt.Errorf("invalidating flow cache: %w", err)
		}
	}
	log.Info().Str("store_id", storeID.String()).Strs("statuses", req.Statuses).Msg("order flow configured")
	return flowResponse(f), nil
}

func (s *orderFlowService) Describe(ctx context.Context, storeID uuid.UUID) (*dto.FlowResponse, error) {
	f, err := s.Flow(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return flowResponse(f), nil
}

func flowResponse(f orderflow.Flow) *dto.FlowResponse {
	return &dto.FlowResponse{Steps: statusList(f.Steps()), Visible: statusList(f.Visible())}
}

func statusList(ss []orderflow.Status) []dto.StatusResponse {
	out := make([]dto.StatusResponse, 0, len(ss))
	for _, s := range ss {
		out = append(out, dto.StatusResponse{Key: string(s), Label: s.Label()})
	}
	return out
}

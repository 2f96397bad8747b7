package service

import (
	"context"

	"balcao/internal/dto"
	"balcao/internal/model"
	"balcao/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ProductService interface {
	// List returns the catalog; with a device ID the device's favorites come first.
	List(ctx context.Context, storeID uuid.UUID, filter dto.ProductFilter) ([]dto.ProductResponse, error)
	Get(ctx context.Context, storeID, id uuid.UUID) (*dto.ProductResponse, error)
}

type productService struct {
	repo  repository.ProductRepository
	prefs PreferencesService
}

func NewProductService(repo repository.ProductRepository, prefs PreferencesService) ProductService {
	return &productService{repo: repo, prefs: prefs}
}

func (s *productService) List(ctx context.Context, storeID uuid.UUID, filter dto.ProductFilter) ([]dto.ProductResponse, error) {
	products, err := s.repo.List(ctx, storeID, filter)
	if err != nil {
		return nil, persistence("Erro ao carregar produtos", err)
	}
	out := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, productToResponse(&products[i]))
	}
	if filter.DeviceID != "" && s.prefs != nil {
		favs, err := s.prefs.Favorites(ctx, storeID, filter.DeviceID)
		if err != nil {
			log.Warn().Err(err).Str("device_id", filter.DeviceID).Msg("favorites unavailable")
		} else {
			SortByFavorites(out, favs)
		}
	}
	return out, nil
}

func (s *productService) Get(ctx context.Context, storeID, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Produto não encontrado")
		}
		return nil, persistence("Erro ao carregar produto", err)
	}
	if p.StoreID != storeID {
		return nil, notFound("Produto não encontrado")
	}
	resp := productToResponse(p)
	return &resp, nil
}

func productToResponse(p *model.Product) dto.ProductResponse {
	resp := dto.ProductResponse{
		ID:                   p.ID.String(),
		Name:                 p.Name,
		Price:                p.Price,
		StockQuantity:        p.StockQuantity,
		HasVariations:        p.HasVariations,
		EarnsLoyaltyPoints:   p.EarnsLoyaltyPoints,
		LoyaltyPointsValue:   p.LoyaltyPointsValue,
		CanBeRedeemed:        p.CanBeRedeemedWithPoints,
		RedemptionPointsCost: p.RedemptionPointsCost,
	}
	if p.CategoryID != nil {
		id := p.CategoryID.String()
		resp.CategoryID = &id
	}
	for _, v := range p.Variations {
		vr := dto.VariationResponse{
			ID:            v.ID.String(),
			Name:          v.Name,
			Price:         v.UnitPrice(p.Price),
			StockQuantity: v.StockQuantity,
			IsComposite:   v.IsComposite,
		}
		if v.IsComposite {
			vr.YieldQuantity = v.YieldQuantity
		}
		resp.Variations = append(resp.Variations, vr)
	}
	return resp
}

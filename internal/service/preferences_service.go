package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"balcao/internal/dto"
	"balcao/internal/kvstore"

	"github.com/google/uuid"
)

// PreferencesService keeps per-device settings of an operator station:
// favorite products, recent searches and whether receipts are printed.
type PreferencesService interface {
	Get(ctx context.Context, storeID uuid.UUID, deviceID string) (*dto.PreferencesResponse, error)
	// ToggleFavorite adds or removes productID and reports whether it is now a favorite.
	ToggleFavorite(ctx context.Context, storeID uuid.UUID, deviceID, productID string) (bool, error)
	Favorites(ctx context.Context, storeID uuid.UUID, deviceID string) ([]string, error)
	// AddSearch records term as the most recent search.
	AddSearch(ctx context.Context, storeID uuid.UUID, deviceID, term string) ([]string, error)
	ClearSearch(ctx context.Context, storeID uuid.UUID, deviceID string) error
	SetPrintEnabled(ctx context.Context, storeID uuid.UUID, deviceID string, enabled bool) error
	// PrintEnabled defaults to true for devices that never set it.
	PrintEnabled(ctx context.Context, storeID uuid.UUID, deviceID string) (bool, error)
}

type preferencesService struct {
	kv           kvstore.Store
	historyLimit int
}

func NewPreferencesService(kv kvstore.Store, historyLimit int) PreferencesService {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &preferencesService{kv: kv, historyLimit: historyLimit}
}

func prefKey(storeID uuid.UUID, deviceID, name string) string {
	if deviceID == "" {
		deviceID = "default"
	}
	return fmt.Sprintf("prefs:%s:%s:%s", storeID, deviceID, name)
}

// list reads a JSON string list; a missing key is an empty list.
func (s *preferencesService) list(ctx context.Context, key string) ([]string, error) {
	var out []string
	if err := kvstore.GetJSON(ctx, s.kv, key, &out); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (s *preferencesService) Get(ctx context.Context, storeID uuid.UUID, deviceID string) (*dto.PreferencesResponse, error) {
	favs, err := s.Favorites(ctx, storeID, deviceID)
	if err != nil {
		return nil, err
	}
	history, err := s.list(ctx, prefKey(storeID, deviceID, "search_history"))
	if err != nil {
		return nil, err
	}
	printOn, err := s.PrintEnabled(ctx, storeID, deviceID)
	if err != nil {
		return nil, err
	}
	return &dto.PreferencesResponse{Favorites: favs, SearchHistory: history, PrintEnabled: printOn}, nil
}

func (s *preferencesService) Favorites(ctx context.Context, storeID uuid.UUID, deviceID string) ([]string, error) {
	return s.list(ctx, prefKey(storeID, deviceID, "favorites"))
}

func (s *preferencesService) ToggleFavorite(ctx context.Context, storeID uuid.UUID, deviceID, productID string) (bool, error) {
	key := prefKey(storeID, deviceID, "favorites")
	favs, err := s.list(ctx, key)
	if err != nil {
		return false, err
	}
	next := make([]string, 0, len(favs)+1)
	removed := false
	for _, id := range favs {
		if id == productID {
			removed = true
			continue
		}
		next = append(next, id)
	}
	if !removed {
		next = append(next, productID)
	}
	if err := kvstore.SetJSON(ctx, s.kv, key, next, 0); err != nil {
		return false, err
	}
	return !removed, nil
}

func (s *preferencesService) AddSearch(ctx context.Context, storeID uuid.UUID, deviceID, term string) ([]string, error) {
	key := prefKey(storeID, deviceID, "search_history")
	history, err := s.list(ctx, key)
	if err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return history, nil
	}
	next := []string{term}
	for _, t := range history {
		if t != term {
			next = append(next, t)
		}
	}
	if len(next) > s.historyLimit {
		next = next[:s.historyLimit]
	}
	if err := kvstore.SetJSON(ctx, s.kv, key, next, 0); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *preferencesService) ClearSearch(ctx context.Context, storeID uuid.UUID, deviceID string) error {
	return s.kv.Delete(ctx, prefKey(storeID, deviceID, "search_history"))
}

func (s *preferencesService) SetPrintEnabled(ctx context.Context, storeID uuid.UUID, deviceID string, enabled bool) error {
	return kvstore.SetJSON(ctx, s.kv, prefKey(storeID, deviceID, "print_enabled"), enabled, 0)
}

func (s *preferencesService) PrintEnabled(ctx context.Context, storeID uuid.UUID, deviceID string) (bool, error) {
	enabled := true
	err := kvstore.GetJSON(ctx, s.kv, prefKey(storeID, deviceID, "print_enabled"), &enabled)
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return true, err
	}
	return enabled, nil
}

// SortByFavorites marks favorites and moves them to the front, keeping the
// relative order of both groups.
func SortByFavorites(products []dto.ProductResponse, favorites []string) {
	fav := make(map[string]bool, len(favorites))
	for _, id := range favorites {
		fav[id] = true
	}
	for i := range products {
		products[i].Favorite = fav[products[i].ID]
	}
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Favorite && !products[j].Favorite
	})
}

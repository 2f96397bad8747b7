// Package seed loads a store and its catalog from a YAML fixture. balcaoctl
// uses it to bootstrap a store; the integration test uses it for its data.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"balcao/internal/dto"
	"balcao/internal/model"
	"balcao/internal/orderflow"
	"balcao/internal/repository"
	"balcao/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Fixture struct {
	Store      StoreFixture      `yaml:"store"`
	Categories []CategoryFixture `yaml:"categories"`
}

type StoreFixture struct {
	ID                  string         `yaml:"id"`
	Name                string         `yaml:"name"`
	Phone               string         `yaml:"phone"`
	CourierWhatsapp     string         `yaml:"courier_whatsapp"`
	AlertEmail          string         `yaml:"alert_email"`
	StockAlertThreshold int            `yaml:"stock_alert_threshold"`
	Flow                []string       `yaml:"flow"`
	Hours               []HoursFixture `yaml:"hours"`
}

// HoursFixture is one weekday (0 = Sunday). Open and Close are "HH:MM".
type HoursFixture struct {
	Day    int    `yaml:"day"`
	Open   string `yaml:"open"`
	Close  string `yaml:"close"`
	Closed bool   `yaml:"closed"`
}

type CategoryFixture struct {
	Name     string           `yaml:"name"`
	Products []ProductFixture `yaml:"products"`
}

type ProductFixture struct {
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
	Stock int    `yaml:"stock"`
	// EarnsPoints credits that many points per unit on delivery
	EarnsPoints int `yaml:"earns_points"`
	// RedeemFor makes the product redeemable at that many points per unit
	RedeemFor  int                `yaml:"redeem_for"`
	Variations []VariationFixture `yaml:"variations"`
	Packaging  []PackagingFixture `yaml:"packaging"`
}

type VariationFixture struct {
	Name            string `yaml:"name"`
	PriceAdjustment string `yaml:"price_adjustment"`
	Stock           int    `yaml:"stock"`
	// RawMaterial names the product ("Frango") or variation ("Frango/Inteiro")
	// this composite variation is produced from.
	RawMaterial string `yaml:"raw_material"`
	Yield       int    `yaml:"yield"`
}

type PackagingFixture struct {
	Product  string `yaml:"product"`
	Quantity int    `yaml:"quantity"`
}

// Parse decodes and checks a fixture. Unknown keys are rejected.
func Parse(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("seed: decode: %w", err)
	}
	if err := f.check(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) check() error {
	var errs []error
	if strings.TrimSpace(f.Store.Name) == "" {
		errs = append(errs, errors.New("store.name is required"))
	}
	if f.Store.ID != "" {
		if _, err := uuid.Parse(f.Store.ID); err != nil {
			errs = append(errs, fmt.Errorf("store.id: %w", err))
		}
	}
	if _, err := orderflow.ParseFlow(f.Store.Flow); err != nil {
		errs = append(errs, fmt.Errorf("store.flow: %w", err))
	}
	for _, h := range f.Store.Hours {
		if h.Day < 0 || h.Day > 6 {
			errs = append(errs, fmt.Errorf("hours: day %d out of range", h.Day))
		}
		if !h.Closed && (h.Open == "" || h.Close == "") {
			errs = append(errs, fmt.Errorf("hours: day %d needs open and close", h.Day))
		}
	}

	names := map[string]bool{}
	for _, c := range f.Categories {
		for _, p := range c.Products {
			if names[p.Name] {
				errs = append(errs, fmt.Errorf("product %q declared twice", p.Name))
			}
			names[p.Name] = true
			if _, err := decimal.NewFromString(p.Price); err != nil {
				errs = append(errs, fmt.Errorf("product %q: price %q: %w", p.Name, p.Price, err))
			}
		}
	}
	for _, c := range f.Categories {
		for _, p := range c.Products {
			for _, v := range p.Variations {
				if v.RawMaterial == "" {
					continue
				}
				raw, _, _ := strings.Cut(v.RawMaterial, "/")
				if !names[raw] {
					errs = append(errs, fmt.Errorf("variation %s/%s: unknown raw material %q", p.Name, v.Name, v.RawMaterial))
				}
				if v.Yield < 1 {
					errs = append(errs, fmt.Errorf("variation %s/%s: yield must be at least 1", p.Name, v.Name))
				}
			}
			for _, pk := range p.Packaging {
				if !names[pk.Product] {
					errs = append(errs, fmt.Errorf("product %q: unknown packaging %q", p.Name, pk.Product))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// Deps are the repositories and services a fixture is written through.
type Deps struct {
	Stores   repository.StoreRepository
	Products repository.ProductRepository
	Flow     service.OrderFlowService
}

// Result reports what Apply created.
type Result struct {
	StoreID    uuid.UUID
	Categories int
	Products   int
	Variations int
}

// Apply creates the store, its flow and hours, then the catalog. Composite
// variations and packaging links are written last, once every product they
// point to exists.
func Apply(ctx context.Context, d Deps, f *Fixture) (*Result, error) {
	store := &model.Store{
		Name:                f.Store.Name,
		Active:              true,
		Phone:               optional(f.Store.Phone),
		StockAlertEnabled:   f.Store.StockAlertThreshold > 0,
		StockAlertThreshold: f.Store.StockAlertThreshold,
		AlertEmail:          optional(f.Store.AlertEmail),
	}
	if f.Store.CourierWhatsapp != "" {
		store.MotoboyWhatsappNumber = &f.Store.CourierWhatsapp
	}
	if f.Store.ID != "" {
		store.ID = uuid.MustParse(f.Store.ID)
	} else {
		store.ID = uuid.New()
	}
	if err := d.Stores.Create(ctx, store); err != nil {
		return nil, fmt.Errorf("seed: create store: %w", err)
	}
	res := &Result{StoreID: store.ID}

	if _, err := d.Flow.Configure(ctx, store.ID, dto.FlowConfigRequest{Statuses: f.Store.Flow}); err != nil {
		return nil, fmt.Errorf("seed: flow: %w", err)
	}
	for _, h := range f.Store.Hours {
		row := &model.OperatingHours{StoreID: store.ID, DayOfWeek: h.Day, IsOpen: !h.Closed}
		if !h.Closed {
			row.OpenTime, row.CloseTime = optional(h.Open), optional(h.Close)
		}
		if err := d.Stores.SaveOperatingHours(ctx, row); err != nil {
			return nil, fmt.Errorf("seed: hours: %w", err)
		}
	}

	products := map[string]*model.Product{}
	variations := map[string]*model.Variation{}
	for i, c := range f.Categories {
		cat := &model.Category{ID: uuid.New(), StoreID: store.ID, Name: c.Name, DisplayOrder: i + 1, Active: true}
		if err := d.Products.CreateCategory(ctx, cat); err != nil {
			return nil, fmt.Errorf("seed: category %q: %w", c.Name, err)
		}
		res.Categories++
		for _, pf := range c.Products {
			p := &model.Product{
				ID:                      uuid.New(),
				StoreID:                 store.ID,
				CategoryID:              &cat.ID,
				Name:                    pf.Name,
				Price:                   decimal.RequireFromString(pf.Price),
				StockQuantity:           pf.Stock,
				HasVariations:           len(pf.Variations) > 0,
				EarnsLoyaltyPoints:      pf.EarnsPoints > 0,
				LoyaltyPointsValue:      pf.EarnsPoints,
				CanBeRedeemedWithPoints: pf.RedeemFor > 0,
				RedemptionPointsCost:    pf.RedeemFor,
				Active:                  true,
			}
			if err := d.Products.Create(ctx, p); err != nil {
				return nil, fmt.Errorf("seed: product %q: %w", pf.Name, err)
			}
			products[pf.Name] = p
			res.Products++
		}
	}

	for _, c := range f.Categories {
		for _, pf := range c.Products {
			p := products[pf.Name]
			for _, vf := range pf.Variations {
				v := &model.Variation{
					ID:            uuid.New(),
					ProductID:     p.ID,
					Name:          vf.Name,
					StockQuantity: vf.Stock,
					YieldQuantity: 1,
					Active:        true,
				}
				if vf.PriceAdjustment != "" {
					v.PriceAdjustment = decimal.RequireFromString(vf.PriceAdjustment)
				}
				if vf.RawMaterial != "" {
					v.IsComposite = true
					v.YieldQuantity = vf.Yield
					rawName, rawVar, _ := strings.Cut(vf.RawMaterial, "/")
					raw := products[rawName]
					v.RawMaterialProductID = &raw.ID
					if rawVar != "" {
						rv, ok := variations[rawName+"/"+rawVar]
						if !ok {
							return nil, fmt.Errorf("seed: variation %s/%s: raw material %q must be declared earlier", pf.Name, vf.Name, vf.RawMaterial)
						}
						v.RawMaterialVariationID = &rv.ID
					}
				}
				if err := d.Products.CreateVariation(ctx, v); err != nil {
					return nil, fmt.Errorf("seed: variation %s/%s: %w", pf.Name, vf.Name, err)
				}
				variations[pf.Name+"/"+vf.Name] = v
				res.Variations++
			}
			for _, pk := range pf.Packaging {
				qty := pk.Quantity
				if qty < 1 {
					qty = 1
				}
				link := &model.ProductPackagingLink{
					StoreID:     store.ID,
					ProductID:   p.ID,
					PackagingID: products[pk.Product].ID,
					Quantity:    qty,
				}
				if err := d.Products.CreatePackagingLink(ctx, link); err != nil {
					return nil, fmt.Errorf("seed: packaging %s/%s: %w", pf.Name, pk.Product, err)
				}
			}
		}
	}

	log.Info().
		Str("store_id", store.ID.String()).
		Int("categories", res.Categories).
		Int("products", res.Products).
		Int("variations", res.Variations).
		Msg("seed applied")
	return res, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package service

import (
	"context"
	"strings"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/pkg/logger"
	"github.com/locodavid123/parcial1/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const catalogKeyPrefix = "products:"

// Cache is the subset of pkg/cache used by the catalog
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	DeletePattern(ctx context.Context, pattern string) error
}

// ProductInput carries product fields. Nil fields are left unchanged on update.
type ProductInput struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
	MinStock    *int
	ImageURL    *string
}

// CatalogService serves the product catalog with an optional read-through cache
type CatalogService struct {
	store store.Store
	cache Cache
	group singleflight.Group
}

// NewCatalogService creates the service. cache may be nil.
func NewCatalogService(s store.Store, cache Cache) *CatalogService {
	return &CatalogService{store: s, cache: cache}
}

// List returns the products matching every word of search, ordered by name
func (s *CatalogService) List(ctx context.Context, search string) ([]model.Product, error) {
	terms := store.SearchTerms(search)
	key := catalogKeyPrefix + "list:" + strings.Join(terms, "+")

	var products []model.Product
	if s.lookup(ctx, key, &products) {
		return products, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		products, err := s.store.Products().List(ctx, store.ProductFilter{Search: strings.Join(terms, " ")})
		if err != nil {
			return nil, err
		}
		s.fill(ctx, key, products)
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Product), nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*model.Product, error) {
	key := catalogKeyPrefix + "id:" + id

	var p model.Product
	if s.lookup(ctx, key, &p) {
		return &p, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		p, err := s.store.Products().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		s.fill(ctx, key, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	cp := *v.(*model.Product)
	return &cp, nil
}

// LowStock lists the products at or below their restock threshold
func (s *CatalogService) LowStock(ctx context.Context) ([]model.Product, error) {
	products, err := s.store.Products().List(ctx, store.ProductFilter{})
	if err != nil {
		return nil, err
	}
	low := make([]model.Product, 0)
	for _, p := range products {
		if p.LowStock() {
			low = append(low, p)
		}
	}
	return low, nil
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*model.Product, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, invalid("product name is required")
	}
	if in.Price == nil {
		return nil, invalid("product price is required")
	}

	p := &model.Product{}
	if err := applyProductInput(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.store.Products().Create(ctx, p); err != nil {
		return nil, err
	}

	prometheus.UpdateProductInventory(p.ID, p.Name, p.Stock)
	s.Invalidate(ctx)
	logger.FromContext(ctx).Info("Product created",
		zap.String("product_id", p.ID),
		zap.String("name", p.Name))
	return p, nil
}

func (s *CatalogService) Update(ctx context.Context, id string, in ProductInput) (*model.Product, error) {
	p, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyProductInput(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.store.Products().Update(ctx, p, in.Stock != nil); err != nil {
		return nil, err
	}

	prometheus.UpdateProductInventory(p.ID, p.Name, p.Stock)
	s.Invalidate(ctx)
	logger.FromContext(ctx).Info("Product updated", zap.String("product_id", p.ID))
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	p, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Products().Delete(ctx, id); err != nil {
		return err
	}

	prometheus.DeleteProductInventory(p.ID, p.Name)
	s.Invalidate(ctx)
	logger.FromContext(ctx).Info("Product deleted", zap.String("product_id", id))
	return nil
}

// Invalidate drops every cached catalog entry
func (s *CatalogService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, catalogKeyPrefix+"*"); err != nil {
		logger.FromContext(ctx).Warn("Failed to invalidate catalog cache", zap.Error(err))
	}
}

func (s *CatalogService) lookup(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		logger.FromContext(ctx).Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return found
}

func (s *CatalogService) fill(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		logger.FromContext(ctx).Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func applyProductInput(ctx context.Context, p *model.Product, in ProductInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return invalid("product name is required")
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return invalid("price must not be negative")
		}
		p.Price = model.RoundMoney(*in.Price)
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return invalid("stock must not be negative")
		}
		p.Stock = *in.Stock
	}
	if in.MinStock != nil {
		if *in.MinStock < 0 {
			return invalid("min_stock must not be negative")
		}
		p.MinStock = *in.MinStock
	}
	if in.ImageURL != nil {
		u := strings.TrimSpace(*in.ImageURL)
		if u != "" && !model.ValidImageURL(u) {
			logger.FromContext(ctx).Warn("Ignoring non http(s) image url", zap.String("image_url", u))
			u = ""
		}
		p.ImageURL = u
	}
	return nil
}

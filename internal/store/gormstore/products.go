package gormstore

import (
	"context"
	"time"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/prometheus"
	"gorm.io/gorm"
)

type productRepository struct {
	db      *gorm.DB
	backend string
}

func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	defer prometheus.TrackDBOperation(r.backend, "insert")(time.Now())

	if p.ID == "" {
		p.ID = model.NewID()
	}
	return mapError(r.db.WithContext(ctx).Create(p).Error)
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	defer prometheus.TrackDBOperation(r.backend, "query")(time.Now())

	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (r *productRepository) List(ctx context.Context, filter store.ProductFilter) ([]model.Product, error) {
	defer prometheus.TrackDBOperation(r.backend, "query")(time.Now())

	query := r.db.WithContext(ctx)
	for _, term := range store.SearchTerms(filter.Search) {
		like := "%" + term + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var products []model.Product
	if err := query.Order("name").Find(&products).Error; err != nil {
		return nil, mapError(err)
	}
	return products, nil
}

func (r *productRepository) Update(ctx context.Context, p *model.Product, withStock bool) error {
	defer prometheus.TrackDBOperation(r.backend, "update")(time.Now())

	omit := []string{"id", "created_at"}
	if !withStock {
		omit = append(omit, "stock")
	}
	db := r.db.WithContext(ctx)
	result := db.Model(&model.Product{}).Where("id = ?", p.ID).
		Select("*").Omit(omit...).Updates(p)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	if withStock {
		return nil
	}

	var current model.Product
	if err := db.Select("id", "stock").First(&current, "id = ?", p.ID).Error; err != nil {
		return mapError(err)
	}
	p.Stock = current.Stock
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	defer prometheus.TrackDBOperation(r.backend, "delete")(time.Now())

	result := r.db.WithContext(ctx).Delete(&model.Product{}, "id = ?", id)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AdjustStock applies delta with a single conditional UPDATE so concurrent
// orders can never drive the stock negative.
func (r *productRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	defer prometheus.TrackDBOperation(r.backend, "adjust_stock")(time.Now())

	db := r.db.WithContext(ctx)
	result := db.Model(&model.Product{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", delta),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, mapError(result.Error)
	}

	var p model.Product
	if err := db.Select("id", "stock").First(&p, "id = ?", id).Error; err != nil {
		return 0, mapError(err)
	}
	if result.RowsAffected == 0 {
		return p.Stock, &store.InsufficientStockError{ProductID: id, Available: p.Stock, Requested: -delta}
	}
	return p.Stock, nil
}

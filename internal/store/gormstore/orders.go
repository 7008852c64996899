package gormstore

import (
	"context"
	"fmt"
	"time"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/prometheus"
	"gorm.io/gorm"
)

type orderRepository struct {
	db      *gorm.DB
	backend string
}

// Create inserts the order together with its items
func (r *orderRepository) Create(ctx context.Context, o *model.Order) error {
	defer prometheus.TrackDBOperation(r.backend, "insert")(time.Now())

	if o.ID == "" {
		o.ID = model.NewID()
	}
	for i := range o.Items {
		if o.Items[i].ID == "" {
			o.Items[i].ID = model.NewID()
		}
		o.Items[i].OrderID = o.ID
	}
	return mapError(r.db.WithContext(ctx).Create(o).Error)
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	defer prometheus.TrackDBOperation(r.backend, "query")(time.Now())

	var o model.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &o, nil
}

func (r *orderRepository) List(ctx context.Context, filter store.OrderFilter) ([]model.Order, error) {
	defer prometheus.TrackDBOperation(r.backend, "query")(time.Now())

	query := r.db.WithContext(ctx).Preload("Items")
	if filter.ClientID != "" {
		query = query.Where("client_id = ?", filter.ClientID)
	}

	var orders []model.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) error {
	defer prometheus.TrackDBOperation(r.backend, "update")(time.Now())

	db := r.db.WithContext(ctx)
	result := db.Model(&model.Order{}).Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&model.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return mapError(err)
	}
	if count == 0 {
		return store.ErrNotFound
	}
	return fmt.Errorf("%w: order %s is no longer %s", store.ErrConflict, id, from)
}

// Delete removes the order and its items
func (r *orderRepository) Delete(ctx context.Context, id string) error {
	defer prometheus.TrackDBOperation(r.backend, "delete")(time.Now())

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.OrderItem{}, "order_id = ?", id).Error; err != nil {
			return mapError(err)
		}
		result := tx.Delete(&model.Order{}, "id = ?", id)
		if result.Error != nil {
			return mapError(result.Error)
		}
		if result.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

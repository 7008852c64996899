package gormstore

import (
	"context"
	"strings"
	"time"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/prometheus"
	"gorm.io/gorm"
)

type clientRepository struct {
	db      *gorm.DB
	backend string
}

func (r *clientRepository) Create(ctx context.Context, c *model.Client) error {
	defer prometheus.TrackDBOperation(r.backend, "insert")(time.Now())

	if c.ID == "" {
		c.ID = model.NewID()
	}
	c.Email = strings.ToLower(c.Email)
	return mapError(r.db.WithContext(ctx).Create(c).Error)
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*model.Client, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *clientRepository) GetByUserID(ctx context.Context, userID string) (*model.Client, error) {
	return r.first(ctx, "user_id = ?", userID)
}

func (r *clientRepository) GetByEmail(ctx context.Context, email string) (*model.Client, error) {
	return r.first(ctx, "email = ?", strings.ToLower(email))
}

func (r *clientRepository) first(ctx context.Context, query string, arg string) (*model.Client, error) {
	defer prometheus.TrackDBOperation(r.backend, "query")(time.Now())

	var c model.Client
	if err := r.db.WithContext(ctx).Order("created_at").First(&c, query, arg).Error; err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (r *clientRepository) List(ctx context.Context) ([]model.Client, error) {
	defer prometheus.TrackDBOperation(r.backend, "query")(time.Now())

	var clients []model.Client
	if err := r.db.WithContext(ctx).Order("name").Find(&clients).Error; err != nil {
		return nil, mapError(err)
	}
	return clients, nil
}

func (r *clientRepository) Update(ctx context.Context, c *model.Client) error {
	defer prometheus.TrackDBOperation(r.backend, "update")(time.Now())

	c.Email = strings.ToLower(c.Email)
	result := r.db.WithContext(ctx).Model(&model.Client{}).Where("id = ?", c.ID).
		Select("*").Omit("id", "created_at").Updates(c)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *clientRepository) Delete(ctx context.Context, id string) error {
	defer prometheus.TrackDBOperation(r.backend, "delete")(time.Now())

	result := r.db.WithContext(ctx).Delete(&model.Client{}, "id = ?", id)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

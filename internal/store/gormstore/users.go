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

type userRepository struct {
	db      *gorm.DB
	backend string
}

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	defer prometheus.TrackDBOperation(r.backend, "insert")(time.Now())

	if u.ID == "" {
		u.ID = model.NewID()
	}
	u.Email = strings.ToLower(u.Email)
	return mapError(r.db.WithContext(ctx).Create(u).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	defer prometheus.TrackDBOperation(r.backend, "query")(time.Now())

	var u model.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	defer prometheus.TrackDBOperation(r.backend, "query")(time.Now())

	var u model.User
	if err := r.db.WithContext(ctx).First(&u, "email = ?", strings.ToLower(email)).Error; err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *userRepository) GetByResetToken(ctx context.Context, tokenHash string) (*model.User, error) {
	if tokenHash == "" {
		return nil, store.ErrNotFound
	}
	defer prometheus.TrackDBOperation(r.backend, "query")(time.Now())

	var u model.User
	if err := r.db.WithContext(ctx).First(&u, "password_reset_token = ?", tokenHash).Error; err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	defer prometheus.TrackDBOperation(r.backend, "query")(time.Now())

	var users []model.User
	if err := r.db.WithContext(ctx).Order("name").Find(&users).Error; err != nil {
		return nil, mapError(err)
	}
	return users, nil
}

func (r *userRepository) ListWithFaceDescriptors(ctx context.Context) ([]model.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	enrolled := users[:0]
	for _, u := range users {
		if u.HasFace() {
			enrolled = append(enrolled, u)
		}
	}
	return enrolled, nil
}

func (r *userRepository) Update(ctx context.Context, u *model.User) error {
	defer prometheus.TrackDBOperation(r.backend, "update")(time.Now())

	u.Email = strings.ToLower(u.Email)
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", u.ID).
		Select("*").Omit("id", "created_at").Updates(u)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	defer prometheus.TrackDBOperation(r.backend, "delete")(time.Now())

	result := r.db.WithContext(ctx).Delete(&model.User{}, "id = ?", id)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *userRepository) CountByRole(ctx context.Context, role model.Role) (int64, error) {
	defer prometheus.TrackDBOperation(r.backend, "query")(time.Now())

	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("role = ?", role).Count(&n).Error
	return n, mapError(err)
}

package couchstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-kivik/kivik/v4"
	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/pkg/logger"
	"github.com/locodavid123/parcial1/prometheus"
	"go.uber.org/zap"
)

type userRepository struct {
	db *kivik.DB
}

func emailKey(email string) string { return "email:" + email }

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	defer prometheus.TrackDBOperation(backendName, "insert")(time.Now())

	if u.ID == "" {
		u.ID = model.NewID()
	}
	u.Email = strings.ToLower(u.Email)
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	if err := acquireLock(ctx, r.db, emailKey(u.Email), u.ID); err != nil {
		return err
	}
	if _, err := r.db.Put(ctx, u.ID, newUserDoc(u)); err != nil {
		if relErr := releaseLock(ctx, r.db, emailKey(u.Email), u.ID); relErr != nil {
			logger.FromContext(ctx).Warn("Failed to release email lock", zap.String("email", u.Email), zap.Error(relErr))
		}
		return mapError(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	defer prometheus.TrackDBOperation(backendName, "query")(time.Now())

	var doc userDoc
	if err := get(ctx, r.db, id, typeUser, &doc); err != nil {
		return nil, err
	}
	u := doc.model()
	return &u, nil
}

func (r *userRepository) findOne(ctx context.Context, selector map[string]interface{}) (*model.User, error) {
	defer prometheus.TrackDBOperation(backendName, "query")(time.Now())

	selector["type"] = typeUser
	doc, err := findOne[userDoc](ctx, r.db, selector)
	if err != nil {
		return nil, err
	}
	u := doc.model()
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, map[string]interface{}{"email": strings.ToLower(email)})
}

func (r *userRepository) GetByResetToken(ctx context.Context, tokenHash string) (*model.User, error) {
	if tokenHash == "" {
		return nil, store.ErrNotFound
	}
	return r.findOne(ctx, map[string]interface{}{"password_reset_token": tokenHash})
}

func (r *userRepository) list(ctx context.Context, selector map[string]interface{}) ([]model.User, error) {
	defer prometheus.TrackDBOperation(backendName, "query")(time.Now())

	selector["type"] = typeUser
	docs, err := find[userDoc](ctx, r.db, selector)
	if err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].model())
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	return r.list(ctx, map[string]interface{}{})
}

func (r *userRepository) ListWithFaceDescriptors(ctx context.Context) ([]model.User, error) {
	return r.list(ctx, map[string]interface{}{"face_descriptors.0": map[string]interface{}{"$exists": true}})
}

// Update moves the email lock first when the address changes
func (r *userRepository) Update(ctx context.Context, u *model.User) error {
	defer prometheus.TrackDBOperation(backendName, "update")(time.Now())

	var current userDoc
	if err := get(ctx, r.db, u.ID, typeUser, &current); err != nil {
		return err
	}
	u.Email = strings.ToLower(u.Email)
	if u.Email != current.Email {
		if err := acquireLock(ctx, r.db, emailKey(u.Email), u.ID); err != nil {
			return err
		}
	}

	u.CreatedAt = current.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	doc := newUserDoc(u)
	doc.Rev = current.Rev
	if _, err := r.db.Put(ctx, u.ID, doc); err != nil {
		if u.Email != current.Email {
			_ = releaseLock(ctx, r.db, emailKey(u.Email), u.ID)
		}
		return mapError(err)
	}

	if u.Email != current.Email {
		if err := releaseLock(ctx, r.db, emailKey(current.Email), u.ID); err != nil {
			logger.FromContext(ctx).Warn("Failed to release old email lock", zap.String("email", current.Email), zap.Error(err))
		}
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	defer prometheus.TrackDBOperation(backendName, "delete")(time.Now())

	var current userDoc
	if err := get(ctx, r.db, id, typeUser, &current); err != nil {
		return err
	}
	if _, err := r.db.Delete(ctx, id, current.Rev); err != nil {
		return mapError(err)
	}
	if err := releaseLock(ctx, r.db, emailKey(current.Email), id); err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.FromContext(ctx).Warn("Failed to release email lock", zap.String("email", current.Email), zap.Error(err))
	}
	return nil
}

func (r *userRepository) CountByRole(ctx context.Context, role model.Role) (int64, error) {
	users, err := r.list(ctx, map[string]interface{}{"role": role})
	if err != nil {
		return 0, err
	}
	return int64(len(users)), nil
}

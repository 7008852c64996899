package couchstore

import (
	"context"
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

type clientRepository struct {
	db *kivik.DB
}

func userLinkKey(userID string) string { return "user:" + userID }

func (r *clientRepository) Create(ctx context.Context, c *model.Client) error {
	defer prometheus.TrackDBOperation(backendName, "insert")(time.Now())

	if c.ID == "" {
		c.ID = model.NewID()
	}
	c.Email = strings.ToLower(c.Email)
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	if c.UserID != nil {
		if err := acquireLock(ctx, r.db, userLinkKey(*c.UserID), c.ID); err != nil {
			return err
		}
	}
	if _, err := r.db.Put(ctx, c.ID, newClientDoc(c)); err != nil {
		if c.UserID != nil {
			_ = releaseLock(ctx, r.db, userLinkKey(*c.UserID), c.ID)
		}
		return mapError(err)
	}
	return nil
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*model.Client, error) {
	defer prometheus.TrackDBOperation(backendName, "query")(time.Now())

	var doc clientDoc
	if err := get(ctx, r.db, id, typeClient, &doc); err != nil {
		return nil, err
	}
	c := doc.model()
	return &c, nil
}

func (r *clientRepository) list(ctx context.Context, selector map[string]interface{}) ([]model.Client, error) {
	defer prometheus.TrackDBOperation(backendName, "query")(time.Now())

	selector["type"] = typeClient
	docs, err := find[clientDoc](ctx, r.db, selector)
	if err != nil {
		return nil, err
	}
	clients := make([]model.Client, 0, len(docs))
	for i := range docs {
		clients = append(clients, docs[i].model())
	}
	return clients, nil
}

func (r *clientRepository) oldest(ctx context.Context, selector map[string]interface{}) (*model.Client, error) {
	clients, err := r.list(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(clients) == 0 {
		return nil, store.ErrNotFound
	}
	sort.SliceStable(clients, func(i, j int) bool { return clients[i].CreatedAt.Before(clients[j].CreatedAt) })
	return &clients[0], nil
}

func (r *clientRepository) GetByUserID(ctx context.Context, userID string) (*model.Client, error) {
	return r.oldest(ctx, map[string]interface{}{"user_id": userID})
}

func (r *clientRepository) GetByEmail(ctx context.Context, email string) (*model.Client, error) {
	return r.oldest(ctx, map[string]interface{}{"email": strings.ToLower(email)})
}

func (r *clientRepository) List(ctx context.Context) ([]model.Client, error) {
	clients, err := r.list(ctx, map[string]interface{}{})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(clients, func(i, j int) bool { return clients[i].Name < clients[j].Name })
	return clients, nil
}

func (r *clientRepository) Update(ctx context.Context, c *model.Client) error {
	defer prometheus.TrackDBOperation(backendName, "update")(time.Now())

	var current clientDoc
	if err := get(ctx, r.db, c.ID, typeClient, &current); err != nil {
		return err
	}
	oldLink, newLink := deref(current.UserID), deref(c.UserID)
	if newLink != "" && newLink != oldLink {
		if err := acquireLock(ctx, r.db, userLinkKey(newLink), c.ID); err != nil {
			return err
		}
	}

	c.Email = strings.ToLower(c.Email)
	c.CreatedAt = current.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	doc := newClientDoc(c)
	doc.Rev = current.Rev
	if _, err := r.db.Put(ctx, c.ID, doc); err != nil {
		return mapError(err)
	}

	if oldLink != "" && oldLink != newLink {
		if err := releaseLock(ctx, r.db, userLinkKey(oldLink), c.ID); err != nil {
			logger.FromContext(ctx).Warn("Failed to release user link", zap.String("user_id", oldLink), zap.Error(err))
		}
	}
	return nil
}

func (r *clientRepository) Delete(ctx context.Context, id string) error {
	defer prometheus.TrackDBOperation(backendName, "delete")(time.Now())

	var current clientDoc
	if err := get(ctx, r.db, id, typeClient, &current); err != nil {
		return err
	}
	if _, err := r.db.Delete(ctx, id, current.Rev); err != nil {
		return mapError(err)
	}
	if link := deref(current.UserID); link != "" {
		if err := releaseLock(ctx, r.db, userLinkKey(link), id); err != nil {
			logger.FromContext(ctx).Warn("Failed to release user link", zap.String("user_id", link), zap.Error(err))
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

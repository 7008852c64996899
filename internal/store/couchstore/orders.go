package couchstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-kivik/kivik/v4"
	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/prometheus"
)

type orderRepository struct {
	db *kivik.DB
}

func (r *orderRepository) Create(ctx context.Context, o *model.Order) error {
	defer prometheus.TrackDBOperation(backendName, "insert")(time.Now())

	if o.ID == "" {
		o.ID = model.NewID()
	}
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	for i := range o.Items {
		if o.Items[i].ID == "" {
			o.Items[i].ID = model.NewID()
		}
		o.Items[i].OrderID = o.ID
	}
	_, err := r.db.Put(ctx, o.ID, newOrderDoc(o))
	return mapError(err)
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	defer prometheus.TrackDBOperation(backendName, "query")(time.Now())

	var doc orderDoc
	if err := get(ctx, r.db, id, typeOrder, &doc); err != nil {
		return nil, err
	}
	o := doc.model()
	return &o, nil
}

func (r *orderRepository) List(ctx context.Context, filter store.OrderFilter) ([]model.Order, error) {
	defer prometheus.TrackDBOperation(backendName, "query")(time.Now())

	selector := map[string]interface{}{"type": typeOrder}
	if filter.ClientID != "" {
		selector["client_id"] = filter.ClientID
	}
	docs, err := find[orderDoc](ctx, r.db, selector)
	if err != nil {
		return nil, err
	}
	orders := make([]model.Order, 0, len(docs))
	for i := range docs {
		orders = append(orders, docs[i].model())
	}
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

// UpdateStatus checks the status on every attempt, so a revision race
// lost to another status change ends in ErrConflict.
func (r *orderRepository) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) error {
	defer prometheus.TrackDBOperation(backendName, "update")(time.Now())

	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		var doc orderDoc
		if err = get(ctx, r.db, id, typeOrder, &doc); err != nil {
			return err
		}
		if doc.Status != from {
			return fmt.Errorf("%w: order %s is no longer %s", store.ErrConflict, id, from)
		}
		doc.Status = to
		doc.UpdatedAt = time.Now().UTC()
		if _, err = r.db.Put(ctx, id, &doc); err == nil || !isConflict(err) {
			return mapError(err)
		}
	}
	return mapError(err)
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	defer prometheus.TrackDBOperation(backendName, "delete")(time.Now())

	var doc orderDoc
	if err := get(ctx, r.db, id, typeOrder, &doc); err != nil {
		return err
	}
	_, err := r.db.Delete(ctx, id, doc.Rev)
	return mapError(err)
}

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

type productRepository struct {
	db *kivik.DB
}

func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	defer prometheus.TrackDBOperation(backendName, "insert")(time.Now())

	if p.ID == "" {
		p.ID = model.NewID()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	_, err := r.db.Put(ctx, p.ID, newProductDoc(p))
	return mapError(err)
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	defer prometheus.TrackDBOperation(backendName, "query")(time.Now())

	var doc productDoc
	if err := get(ctx, r.db, id, typeProduct, &doc); err != nil {
		return nil, err
	}
	p := doc.model()
	return &p, nil
}

func (r *productRepository) List(ctx context.Context, filter store.ProductFilter) ([]model.Product, error) {
	defer prometheus.TrackDBOperation(backendName, "query")(time.Now())

	docs, err := find[productDoc](ctx, r.db, searchSelector(filter.Search))
	if err != nil {
		return nil, err
	}
	products := make([]model.Product, 0, len(docs))
	for i := range docs {
		products = append(products, docs[i].model())
	}
	sort.SliceStable(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

// Update writes p over the revision it just read. Unless withStock is set the
// stored stock is carried over, and a 409 from a concurrent AdjustStock makes
// it read again so the newer level is kept.
func (r *productRepository) Update(ctx context.Context, p *model.Product, withStock bool) error {
	defer prometheus.TrackDBOperation(backendName, "update")(time.Now())

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		var current productDoc
		if err := get(ctx, r.db, p.ID, typeProduct, &current); err != nil {
			return err
		}
		doc := newProductDoc(p)
		doc.Rev = current.Rev
		doc.CreatedAt = current.CreatedAt
		doc.UpdatedAt = time.Now().UTC()
		if !withStock {
			doc.Stock = current.Stock
		}

		_, err := r.db.Put(ctx, p.ID, doc)
		if err == nil {
			p.Stock = doc.Stock
			p.CreatedAt = doc.CreatedAt
			p.UpdatedAt = doc.UpdatedAt
			return nil
		}
		if !isConflict(err) {
			return mapError(err)
		}
		if err := sleepBackoff(ctx, attempt); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: product %s kept changing", store.ErrConflict, p.ID)
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	defer prometheus.TrackDBOperation(backendName, "delete")(time.Now())

	var current productDoc
	if err := get(ctx, r.db, id, typeProduct, &current); err != nil {
		return err
	}
	_, err := r.db.Delete(ctx, id, current.Rev)
	return mapError(err)
}

// AdjustStock is a read-check-write on the document revision. A concurrent
// writer makes the Put fail with 409, in which case the cycle starts again.
func (r *productRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	defer prometheus.TrackDBOperation(backendName, "adjust_stock")(time.Now())

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		var doc productDoc
		if err := get(ctx, r.db, id, typeProduct, &doc); err != nil {
			return 0, err
		}
		if doc.Stock+delta < 0 {
			return doc.Stock, &store.InsufficientStockError{ProductID: id, Available: doc.Stock, Requested: -delta}
		}

		doc.Stock += delta
		doc.UpdatedAt = time.Now().UTC()
		_, err := r.db.Put(ctx, id, &doc)
		if err == nil {
			return doc.Stock, nil
		}
		if !isConflict(err) {
			return 0, mapError(err)
		}
		if err := sleepBackoff(ctx, attempt); err != nil {
			return 0, err
		}
	}
	return 0, fmt.Errorf("%w: stock of product %s kept changing", store.ErrConflict, id)
}

func sleepBackoff(ctx context.Context, attempt int) error {
	t := time.NewTimer(time.Duration(attempt+1) * 10 * time.Millisecond)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

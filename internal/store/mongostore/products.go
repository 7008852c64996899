package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productRepository struct {
	coll *mongo.Collection
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
	_, err := r.coll.InsertOne(ctx, p)
	return mapError(err)
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	defer prometheus.TrackDBOperation(backendName, "query")(time.Now())

	var p model.Product
	if err := r.coll.FindOne(ctx, byID(id)).Decode(&p); err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (r *productRepository) List(ctx context.Context, filter store.ProductFilter) ([]model.Product, error) {
	defer prometheus.TrackDBOperation(backendName, "query")(time.Now())

	cur, err := r.coll.Find(ctx, searchFilter(filter.Search),
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, mapError(err)
	}
	return decodeAll[model.Product](ctx, cur)
}

func (r *productRepository) Update(ctx context.Context, p *model.Product, withStock bool) error {
	defer prometheus.TrackDBOperation(backendName, "update")(time.Now())

	p.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"min_stock":   p.MinStock,
		"image_url":   p.ImageURL,
		"updated_at":  p.UpdatedAt,
	}
	if withStock {
		set["stock"] = p.Stock
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.Product
	if err := r.coll.FindOneAndUpdate(ctx, byID(p.ID), bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		return mapError(err)
	}
	p.Stock = updated.Stock
	p.CreatedAt = updated.CreatedAt
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	defer prometheus.TrackDBOperation(backendName, "delete")(time.Now())

	res, err := r.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return mapError(err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AdjustStock increments the stock only when the result stays non-negative,
// in a single FindOneAndUpdate.
func (r *productRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	defer prometheus.TrackDBOperation(backendName, "adjust_stock")(time.Now())

	filter := bson.M{"_id": id, "stock": bson.M{"$gte": -delta}}
	update := bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p model.Product
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if err == nil {
		return p.Stock, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, mapError(err)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return current.Stock, &store.InsufficientStockError{ProductID: id, Available: current.Stock, Requested: -delta}
}

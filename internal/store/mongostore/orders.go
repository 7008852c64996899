package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// orderRepository stores each order as one document with its items embedded
type orderRepository struct {
	coll *mongo.Collection
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
	_, err := r.coll.InsertOne(ctx, o)
	return mapError(err)
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	defer prometheus.TrackDBOperation(backendName, "query")(time.Now())

	var o model.Order
	if err := r.coll.FindOne(ctx, byID(id)).Decode(&o); err != nil {
		return nil, mapError(err)
	}
	linkItems(&o)
	return &o, nil
}

func (r *orderRepository) List(ctx context.Context, filter store.OrderFilter) ([]model.Order, error) {
	defer prometheus.TrackDBOperation(backendName, "query")(time.Now())

	query := bson.M{}
	if filter.ClientID != "" {
		query["client_id"] = filter.ClientID
	}
	cur, err := r.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, mapError(err)
	}
	orders, err := decodeAll[model.Order](ctx, cur)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		linkItems(&orders[i])
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) error {
	defer prometheus.TrackDBOperation(backendName, "update")(time.Now())

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": bson.M{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, byID(id))
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return fmt.Errorf("%w: order %s is no longer %s", store.ErrConflict, id, from)
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
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

// linkItems restores the order id that is not persisted on embedded items
func linkItems(o *model.Order) {
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
}

package mongostore

import (
	"context"
	"strings"
	"time"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type clientRepository struct {
	coll *mongo.Collection
}

func (r *clientRepository) Create(ctx context.Context, c *model.Client) error {
	defer prometheus.TrackDBOperation(backendName, "insert")(time.Now())

	if c.ID == "" {
		c.ID = model.NewID()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	c.Email = strings.ToLower(c.Email)
	_, err := r.coll.InsertOne(ctx, c)
	return mapError(err)
}

func (r *clientRepository) findOne(ctx context.Context, filter bson.M) (*model.Client, error) {
	defer prometheus.TrackDBOperation(backendName, "query")(time.Now())

	var c model.Client
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&c); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*model.Client, error) {
	return r.findOne(ctx, byID(id))
}

func (r *clientRepository) GetByUserID(ctx context.Context, userID string) (*model.Client, error) {
	return r.findOne(ctx, bson.M{"user_id": userID})
}

func (r *clientRepository) GetByEmail(ctx context.Context, email string) (*model.Client, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *clientRepository) List(ctx context.Context) ([]model.Client, error) {
	defer prometheus.TrackDBOperation(backendName, "query")(time.Now())

	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, mapError(err)
	}
	return decodeAll[model.Client](ctx, cur)
}

func (r *clientRepository) Update(ctx context.Context, c *model.Client) error {
	defer prometheus.TrackDBOperation(backendName, "update")(time.Now())

	c.Email = strings.ToLower(c.Email)
	c.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, byID(c.ID), c)
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *clientRepository) Delete(ctx context.Context, id string) error {
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

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

type userRepository struct {
	coll *mongo.Collection
}

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	defer prometheus.TrackDBOperation(backendName, "insert")(time.Now())

	if u.ID == "" {
		u.ID = model.NewID()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	u.Email = strings.ToLower(u.Email)
	_, err := r.coll.InsertOne(ctx, u)
	return mapError(err)
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	defer prometheus.TrackDBOperation(backendName, "query")(time.Now())

	var u model.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, byID(id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *userRepository) GetByResetToken(ctx context.Context, tokenHash string) (*model.User, error) {
	if tokenHash == "" {
		return nil, store.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"password_reset_token": tokenHash})
}

func (r *userRepository) find(ctx context.Context, filter bson.M) ([]model.User, error) {
	defer prometheus.TrackDBOperation(backendName, "query")(time.Now())

	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, mapError(err)
	}
	return decodeAll[model.User](ctx, cur)
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	return r.find(ctx, bson.M{})
}

func (r *userRepository) ListWithFaceDescriptors(ctx context.Context) ([]model.User, error) {
	return r.find(ctx, bson.M{"face_descriptors.0": bson.M{"$exists": true}})
}

func (r *userRepository) Update(ctx context.Context, u *model.User) error {
	defer prometheus.TrackDBOperation(backendName, "update")(time.Now())

	u.Email = strings.ToLower(u.Email)
	u.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, byID(u.ID), u)
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
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

func (r *userRepository) CountByRole(ctx context.Context, role model.Role) (int64, error) {
	defer prometheus.TrackDBOperation(backendName, "query")(time.Now())

	n, err := r.coll.CountDocuments(ctx, bson.M{"role": role})
	return n, mapError(err)
}

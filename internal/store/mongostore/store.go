// Package mongostore implements store.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/pkg/config"
	"github.com/locodavid123/parcial1/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	backendName = "mongo"

	usersCollection    = "users"
	clientsCollection  = "clients"
	productsCollection = "products"
	ordersCollection   = "orders"
)

// Store is a MongoDB backed store
type Store struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
}

var _ store.Store = (*Store)(nil)

// Connect opens a client and checks the server is reachable
func Connect(ctx context.Context, cfg *config.MongoConfig) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.GetLogger().Info("MongoDB connected successfully",
		zap.String("database", cfg.DatabaseName()),
		zap.Bool("transactions", cfg.Transactions))
	return New(client, cfg.DatabaseName(), cfg.Transactions), nil
}

// New wraps a connected client
func New(client *mongo.Client, database string, transactions bool) *Store {
	return &Store{client: client, db: client.Database(database), transactions: transactions}
}

func (s *Store) Name() string { return backendName }

// Atomic is true only when multi-document transactions are enabled (replica set required)
func (s *Store) Atomic() bool { return s.transactions }

func (s *Store) Users() store.UserRepository {
	return &userRepository{coll: s.db.Collection(usersCollection)}
}

func (s *Store) Clients() store.ClientRepository {
	return &clientRepository{coll: s.db.Collection(clientsCollection)}
}

func (s *Store) Products() store.ProductRepository {
	return &productRepository{coll: s.db.Collection(productsCollection)}
}

func (s *Store) Orders() store.OrderRepository {
	return &orderRepository{coll: s.db.Collection(ordersCollection)}
}

// RunInTx runs fn in a session transaction when enabled, otherwise directly
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Repositories) error) error {
	if !s.transactions {
		return fn(ctx, s)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	})
	return err
}

// Migrate creates the collection indexes
func (s *Store) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "password_reset_token", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		clientsCollection: {
			{
				Keys: bson.D{{Key: "user_id", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"user_id": bson.M{"$type": "string"}}),
			},
			{Keys: bson.D{{Key: "email", Value: 1}}},
		},
		productsCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}},
		},
		ordersCollection: {
			{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes the whole database. Used by integration tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	}
	return err
}

// searchFilter requires every term in the name or description, case-insensitively
func searchFilter(search string) bson.M {
	terms := store.SearchTerms(search)
	if len(terms) == 0 {
		return bson.M{}
	}
	and := make(bson.A, 0, len(terms))
	for _, t := range terms {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(t), Options: "i"}
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"name": re},
			bson.M{"description": re},
		}})
	}
	return bson.M{"$and": and}
}

func byID(id string) bson.M { return bson.M{"_id": id} }

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]T, error) {
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

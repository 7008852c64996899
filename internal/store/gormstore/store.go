// Package gormstore implements store.Store on top of GORM (PostgreSQL in
// production, SQLite in tests).
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// Store is a GORM backed store. A Store created by RunInTx is bound to the transaction.
type Store struct {
	db      *gorm.DB
	backend string
}

var _ store.Store = (*Store)(nil)

// New wraps an open GORM connection. backend labels logs and metrics.
func New(db *gorm.DB, backend string) *Store {
	return &Store{db: db, backend: backend}
}

// DB exposes the underlying connection
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Name() string { return s.backend }

func (s *Store) Atomic() bool { return true }

func (s *Store) Users() store.UserRepository {
	return &userRepository{db: s.db, backend: s.backend}
}

func (s *Store) Clients() store.ClientRepository {
	return &clientRepository{db: s.db, backend: s.backend}
}

func (s *Store) Products() store.ProductRepository {
	return &productRepository{db: s.db, backend: s.backend}
}

func (s *Store) Orders() store.OrderRepository {
	return &orderRepository{db: s.db, backend: s.backend}
}

// RunInTx runs fn inside a database transaction; any error rolls everything back
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Store{db: tx, backend: s.backend})
	})
}

// Migrate creates or updates the tables
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&model.User{},
		&model.Client{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
	)
	if err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// mapError converts driver errors into store errors
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrConflict, pgErr.ConstraintName)
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	}
	return err
}

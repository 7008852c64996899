// Package store defines the persistence contract shared by every datastore backend.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/locodavid123/parcial1/internal/model"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("record already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError reports which product could not cover an adjustment
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ProductFilter narrows product listings. Search matches every word against name or description.
type ProductFilter struct {
	Search string
}

// OrderFilter narrows order listings
type OrderFilter struct {
	ClientID string
}

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByResetToken(ctx context.Context, tokenHash string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	ListWithFaceDescriptors(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id string) error
	CountByRole(ctx context.Context, role model.Role) (int64, error)
}

type ClientRepository interface {
	Create(ctx context.Context, c *model.Client) error
	GetByID(ctx context.Context, id string) (*model.Client, error)
	GetByUserID(ctx context.Context, userID string) (*model.Client, error)
	GetByEmail(ctx context.Context, email string) (*model.Client, error)
	List(ctx context.Context) ([]model.Client, error)
	Update(ctx context.Context, c *model.Client) error
	Delete(ctx context.Context, id string) error
}

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	GetByID(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	// Update writes the editable fields of p. Stock is written only when
	// withStock is set; otherwise the stored level is kept and copied into p,
	// so an edit never undoes a concurrent AdjustStock.
	Update(ctx context.Context, p *model.Product, withStock bool) error
	Delete(ctx context.Context, id string) error
	// AdjustStock adds delta to the stock of a product and returns the new level.
	// It fails with an *InsufficientStockError instead of going below zero.
	AdjustStock(ctx context.Context, id string, delta int) (int, error)
}

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	// List returns orders newest first
	List(ctx context.Context, filter OrderFilter) ([]model.Order, error)
	// UpdateStatus moves an order from one status to another. It fails with
	// ErrConflict when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) error
	Delete(ctx context.Context, id string) error
}

// Repositories groups the entity repositories bound to one unit of work
type Repositories interface {
	Users() UserRepository
	Clients() ClientRepository
	Products() ProductRepository
	Orders() OrderRepository
}

// Store is a datastore backend
type Store interface {
	Repositories

	// Name identifies the backend in logs and metrics
	Name() string
	// Atomic reports whether RunInTx rolls back every write when fn fails
	Atomic() bool
	// RunInTx calls fn with repositories bound to a single unit of work
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

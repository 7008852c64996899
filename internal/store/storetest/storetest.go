// Package storetest provides datastores for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/internal/store/gormstore"
	"github.com/locodavid123/parcial1/pkg/database"
	"github.com/stretchr/testify/require"
)

// NewSQLite returns a migrated store backed by a temporary SQLite file
func NewSQLite(t testing.TB) *gormstore.Store {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	s := gormstore.New(db, "sqlite")
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// NonAtomic wraps a store so RunInTx gives no rollback, like CouchDB.
// FailAdjustAfter makes the n-th AdjustStock call (1-based) fail.
type NonAtomic struct {
	store.Store
	FailAdjustAfter int
	FailOrderCreate error

	adjustCalls int
}

func (n *NonAtomic) Atomic() bool { return false }

func (n *NonAtomic) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Repositories) error) error {
	return fn(ctx, n)
}

func (n *NonAtomic) Products() store.ProductRepository {
	return &failingProducts{ProductRepository: n.Store.Products(), owner: n}
}

func (n *NonAtomic) Orders() store.OrderRepository {
	return &failingOrders{OrderRepository: n.Store.Orders(), owner: n}
}

type failingProducts struct {
	store.ProductRepository
	owner *NonAtomic
}

func (p *failingProducts) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	p.owner.adjustCalls++
	if p.owner.FailAdjustAfter > 0 && p.owner.adjustCalls == p.owner.FailAdjustAfter {
		return 0, &store.InsufficientStockError{ProductID: id, Requested: -delta}
	}
	return p.ProductRepository.AdjustStock(ctx, id, delta)
}

type failingOrders struct {
	store.OrderRepository
	owner *NonAtomic
}

func (o *failingOrders) Create(ctx context.Context, order *model.Order) error {
	if o.owner.FailOrderCreate != nil {
		return o.owner.FailOrderCreate
	}
	return o.OrderRepository.Create(ctx, order)
}

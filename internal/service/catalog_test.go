package service

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"testing"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryCache stores JSON like the Redis cache does
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	hits    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(data, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *memoryCache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.entries, key)
		}
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

func TestCatalogCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.catalog.Create(ctx, ProductInput{Price: ptr(1.0)})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.catalog.Create(ctx, ProductInput{Name: ptr("Arepa"), Price: ptr(-1.0)})
	assert.ErrorIs(t, err, ErrValidation)

	p, err := env.catalog.Create(ctx, ProductInput{
		Name:     ptr("  Arepa de queso "),
		Price:    ptr(3.499),
		Stock:    ptr(4),
		MinStock: ptr(5),
		ImageURL: ptr("javascript:alert(1)"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Arepa de queso", p.Name)
	assert.InDelta(t, 3.5, p.Price, 1e-9)
	assert.Empty(t, p.ImageURL, "non http urls are dropped")

	updated, err := env.catalog.Update(ctx, p.ID, ProductInput{Stock: ptr(20), ImageURL: ptr("https://img.example.com/a.png")})
	require.NoError(t, err)
	assert.Equal(t, 20, updated.Stock)
	assert.Equal(t, "Arepa de queso", updated.Name, "nil fields are kept")
	assert.Equal(t, "https://img.example.com/a.png", updated.ImageURL)

	low, err := env.catalog.LowStock(ctx)
	require.NoError(t, err)
	assert.Empty(t, low)

	require.NoError(t, env.catalog.Delete(ctx, p.ID))
	_, err = env.catalog.Get(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, env.catalog.Delete(ctx, p.ID), store.ErrNotFound)
}

func TestCatalogSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, in := range []ProductInput{
		{Name: ptr("Pizza Hawaiana"), Description: ptr("jamón y piña"), Price: ptr(20.0)},
		{Name: ptr("Pizza Pepperoni"), Price: ptr(22.0)},
		{Name: ptr("Limonada"), Description: ptr("natural"), Price: ptr(4.0)},
	} {
		_, err := env.catalog.Create(ctx, in)
		require.NoError(t, err)
	}

	all, err := env.catalog.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pizzas, err := env.catalog.List(ctx, "PIZZA")
	require.NoError(t, err)
	assert.Len(t, pizzas, 2)

	both, err := env.catalog.List(ctx, "pizza pepperoni")
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "Pizza Pepperoni", both[0].Name)

	byDescription, err := env.catalog.List(ctx, "natural")
	require.NoError(t, err)
	require.Len(t, byDescription, 1)
	assert.Equal(t, "Limonada", byDescription[0].Name)
}

func TestCatalogCacheIsInvalidatedByWrites(t *testing.T) {
	s := storetest.NewSQLite(t)
	cache := newMemoryCache()
	catalog := NewCatalogService(s, cache)
	ctx := context.Background()

	p, err := catalog.Create(ctx, ProductInput{Name: ptr("Arepa"), Price: ptr(3.0), Stock: ptr(10)})
	require.NoError(t, err)

	_, err = catalog.Get(ctx, p.ID)
	require.NoError(t, err)
	cached, err := catalog.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, 10, cached.Stock)

	_, err = catalog.List(ctx, "arepa")
	require.NoError(t, err)
	assert.Contains(t, cache.entries, "products:list:arepa")

	// stock moved by an order goes through Invalidate
	_, err = s.Products().AdjustStock(ctx, p.ID, -4)
	require.NoError(t, err)
	catalog.Invalidate(ctx)
	assert.Empty(t, cache.entries)

	fresh, err := catalog.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, fresh.Stock)

	_, err = catalog.Update(ctx, p.ID, ProductInput{Price: ptr(4.0)})
	require.NoError(t, err)
	assert.Empty(t, cache.entries)
}

func TestLowStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.product(t, "Plenty", 1, 50)
	low := env.product(t, "Scarce", 1, 1)

	products, err := env.catalog.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, low.ID, products[0].ID)
	assert.True(t, products[0].LowStock())
}

// raceyStore runs beforeUpdate right before a product update reaches the datastore
type raceyStore struct {
	store.Store
	beforeUpdate func(ctx context.Context)
}

func (s *raceyStore) Products() store.ProductRepository {
	return &raceyProducts{ProductRepository: s.Store.Products(), owner: s}
}

type raceyProducts struct {
	store.ProductRepository
	owner *raceyStore
}

func (p *raceyProducts) Update(ctx context.Context, product *model.Product, withStock bool) error {
	if hook := p.owner.beforeUpdate; hook != nil {
		p.owner.beforeUpdate = nil
		hook(ctx)
	}
	return p.ProductRepository.Update(ctx, product, withStock)
}

func TestPriceEditKeepsStockSoldMeanwhile(t *testing.T) {
	racey := &raceyStore{Store: storetest.NewSQLite(t)}
	env := newTestEnvWithStore(t, racey)
	ctx := context.Background()

	p := env.product(t, "Ajiaco", 10, 10)
	customer := env.actor(t, model.RoleClient, "ana@example.com")

	var orderErr error
	racey.beforeUpdate = func(ctx context.Context) {
		_, orderErr = env.orders.Place(ctx, customer, PlaceOrderInput{Items: []CartLine{{ProductID: p.ID, Quantity: 4}}})
	}

	updated, err := env.catalog.Update(ctx, p.ID, ProductInput{Price: ptr(5.0)})
	require.NoError(t, err)
	require.NoError(t, orderErr)
	assert.InDelta(t, 5.0, updated.Price, 1e-9)
	assert.Equal(t, 6, updated.Stock)
	assert.Equal(t, 6, env.stock(t, p.ID))

	updated, err = env.catalog.Update(ctx, p.ID, ProductInput{Stock: ptr(20)})
	require.NoError(t, err)
	assert.Equal(t, 20, updated.Stock)
	assert.Equal(t, 20, env.stock(t, p.ID))
}

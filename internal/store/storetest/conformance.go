package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunConformance exercises the behaviour every backend must share.
// newStore must return an empty, migrated store.
func RunConformance(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("clients", func(t *testing.T) { testClients(t, newStore(t)) })
	t.Run("products", func(t *testing.T) { testProducts(t, newStore(t)) })
	t.Run("orders", func(t *testing.T) { testOrders(t, newStore(t)) })
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	u := &model.User{Name: "Ana", Email: "Ana@Example.com", PasswordHash: "hash", Role: model.RoleClient}
	require.NoError(t, s.Users().Create(ctx, u))
	require.NotEmpty(t, u.ID)

	got, err := s.Users().GetByEmail(ctx, "ana@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	err = s.Users().Create(ctx, &model.User{Name: "Other", Email: "ana@example.com", Role: model.RoleClient})
	assert.ErrorIs(t, err, store.ErrConflict)

	got.PasswordResetToken = "abc"
	got.FaceDescriptors = [][]float64{make([]float64, model.FaceDescriptorSize)}
	require.NoError(t, s.Users().Update(ctx, got))

	byToken, err := s.Users().GetByResetToken(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byToken.ID)

	faces, err := s.Users().ListWithFaceDescriptors(ctx)
	require.NoError(t, err)
	assert.Len(t, faces, 1)

	n, err := s.Users().CountByRole(ctx, model.RoleClient)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, s.Users().Delete(ctx, u.ID))
	_, err = s.Users().GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testClients(t *testing.T, s store.Store) {
	ctx := context.Background()

	userID := model.NewID()
	c := &model.Client{Name: "Luis", Email: "luis@example.com", UserID: &userID}
	require.NoError(t, s.Clients().Create(ctx, c))

	got, err := s.Clients().GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	got.Phone = "3001234567"
	require.NoError(t, s.Clients().Update(ctx, got))
	got, err = s.Clients().GetByEmail(ctx, "LUIS@example.com")
	require.NoError(t, err)
	assert.Equal(t, "3001234567", got.Phone)

	list, err := s.Clients().List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.Clients().Delete(ctx, c.ID))
	assert.ErrorIs(t, s.Clients().Delete(ctx, c.ID), store.ErrNotFound)
}

func testProducts(t *testing.T, s store.Store) {
	ctx := context.Background()

	p := &model.Product{Name: "Bandeja paisa", Description: "Frijoles y chicharron", Price: 25000, Stock: 3}
	require.NoError(t, s.Products().Create(ctx, p))
	require.NoError(t, s.Products().Create(ctx, &model.Product{Name: "Agua", Price: 2000, Stock: 1}))

	found, err := s.Products().List(ctx, store.ProductFilter{Search: "FRIJOLES"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, p.ID, found[0].ID)

	level, err := s.Products().AdjustStock(ctx, p.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, 0, level)

	_, err = s.Products().AdjustStock(ctx, p.ID, -1)
	var stockErr *store.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, p.ID, stockErr.ProductID)

	level, err = s.Products().AdjustStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, level)

	_, err = s.Products().AdjustStock(ctx, model.NewID(), 1)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	got.Price = 26000
	require.NoError(t, s.Products().Update(ctx, got, false))
	got, err = s.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 26000, got.Price, 1e-9)
	assert.Equal(t, 2, got.Stock)

	// an edit made from a stale read keeps the stock sold in between
	stale, err := s.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	_, err = s.Products().AdjustStock(ctx, p.ID, -1)
	require.NoError(t, err)
	stale.Price = 27000
	require.NoError(t, s.Products().Update(ctx, stale, false))
	assert.Equal(t, 1, stale.Stock)
	got, err = s.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 27000, got.Price, 1e-9)
	assert.Equal(t, 1, got.Stock)

	got.Stock = 9
	require.NoError(t, s.Products().Update(ctx, got, true))
	got, err = s.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Stock)

	missing := &model.Product{ID: model.NewID(), Name: "Nada", Price: 1}
	assert.ErrorIs(t, s.Products().Update(ctx, missing, false), store.ErrNotFound)

	require.NoError(t, s.Products().Delete(ctx, p.ID))
	_, err = s.Products().GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testOrders(t *testing.T, s store.Store) {
	ctx := context.Background()
	clientID := model.NewID()

	first := &model.Order{ClientID: clientID, Status: model.StatusPending, Items: []model.OrderItem{
		{ProductID: model.NewID(), ProductName: "Agua", Quantity: 1, UnitPrice: 2000},
	}}
	first.Total = first.ComputeTotal()
	require.NoError(t, s.Orders().Create(ctx, first))
	second := &model.Order{ClientID: model.NewID(), Status: model.StatusPending}
	require.NoError(t, s.Orders().Create(ctx, second))

	got, err := s.Orders().GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, first.ID, got.Items[0].OrderID)

	mine, err := s.Orders().List(ctx, store.OrderFilter{ClientID: clientID})
	require.NoError(t, err)
	require.Len(t, mine, 1)

	all, err := s.Orders().List(ctx, store.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.Orders().UpdateStatus(ctx, first.ID, model.StatusPending, model.StatusCancelled))
	err = s.Orders().UpdateStatus(ctx, first.ID, model.StatusPending, model.StatusCompleted)
	assert.ErrorIs(t, err, store.ErrConflict)
	got, err = s.Orders().GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)

	require.NoError(t, s.Orders().Delete(ctx, first.ID))
	assert.ErrorIs(t, s.Orders().Delete(ctx, first.ID), store.ErrNotFound)
}

package transfer

import (
	"context"
	"testing"
	"time"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyKeepsIDsAndIsRepeatable(t *testing.T) {
	ctx := context.Background()
	src := storetest.NewSQLite(t)
	dst := storetest.NewSQLite(t)

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	user := &model.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "hash", Role: model.RoleClient, CreatedAt: created}
	require.NoError(t, src.Users().Create(ctx, user))
	client := &model.Client{Name: "Ana", Email: "ana@example.com", UserID: &user.ID}
	require.NoError(t, src.Clients().Create(ctx, client))
	product := &model.Product{Name: "Arepa", Price: 6000, Stock: 10, MinStock: 2}
	require.NoError(t, src.Products().Create(ctx, product))
	order := &model.Order{
		ClientID: client.ID,
		Status:   model.StatusPending,
		Total:    12000,
		Items:    []model.OrderItem{{ProductID: product.ID, ProductName: "Arepa", Quantity: 2, UnitPrice: 6000}},
	}
	require.NoError(t, src.Orders().Create(ctx, order))

	report, err := Copy(ctx, src, dst)
	require.NoError(t, err)
	assert.Equal(t, Stats{Copied: 1}, report.Users)
	assert.Equal(t, Stats{Copied: 1}, report.Clients)
	assert.Equal(t, Stats{Copied: 1}, report.Products)
	assert.Equal(t, Stats{Copied: 1}, report.Orders)

	gotUser, err := dst.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", gotUser.PasswordHash)
	assert.True(t, created.Equal(gotUser.CreatedAt))

	gotOrder, err := dst.Orders().GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, gotOrder.Items, 1)
	assert.Equal(t, 2, gotOrder.Items[0].Quantity)
	assert.Equal(t, client.ID, gotOrder.ClientID)

	report, err = Copy(ctx, src, dst)
	require.NoError(t, err)
	assert.Equal(t, Stats{Skipped: 1}, report.Users)
	assert.Equal(t, Stats{Skipped: 1}, report.Orders)
}

func TestCopySkipsUniqueCollisions(t *testing.T) {
	ctx := context.Background()
	src := storetest.NewSQLite(t)
	dst := storetest.NewSQLite(t)

	require.NoError(t, src.Users().Create(ctx, &model.User{Name: "A", Email: "same@example.com", Role: model.RoleAdmin}))
	require.NoError(t, dst.Users().Create(ctx, &model.User{Name: "B", Email: "same@example.com", Role: model.RoleAdmin}))

	report, err := Copy(ctx, src, dst)
	require.NoError(t, err)
	assert.Equal(t, Stats{Skipped: 1}, report.Users)

	users, err := dst.Users().List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "B", users[0].Name)
}

package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindClient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ana, err := env.clients.Create(ctx, ClientInput{Name: "Ana María Pérez", Email: "ana@example.com"})
	require.NoError(t, err)
	_, err = env.clients.Create(ctx, ClientInput{Name: "Luis Gómez"})
	require.NoError(t, err)

	byID, err := env.reports.FindClient(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, ana.ID, byID.ID)

	byName, err := env.reports.FindClient(ctx, "  maría ")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, byName.ID)

	_, err = env.reports.FindClient(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = env.reports.FindClient(ctx, " ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSalesCSVIncludesEveryOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.product(t, "Arepa", 3, 10)
	customer := env.actor(t, model.RoleClient, "ana@example.com")

	_, err := env.orders.Place(ctx, customer, PlaceOrderInput{Items: []CartLine{{ProductID: p.ID, Quantity: 2}}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, env.reports.SalesCSV(ctx, &buf))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Contains(t, rows[1], "ana@example.com")

	buf.Reset()
	require.NoError(t, env.reports.StockCSV(ctx, &buf))
	rows, err = csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "8", rows[1][4])
}

func TestClientPurchasesAndInventoryRender(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.product(t, "Arepa", 3, 10)
	customer := env.actor(t, model.RoleClient, "ana@example.com")
	_, err := env.orders.Place(ctx, customer, PlaceOrderInput{Items: []CartLine{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)

	c, err := env.reports.FindClient(ctx, "user ana")
	require.NoError(t, err)

	var xlsx bytes.Buffer
	require.NoError(t, env.reports.ClientPurchasesXLSX(ctx, c, &xlsx))
	assert.True(t, bytes.HasPrefix(xlsx.Bytes(), []byte("PK")), "xlsx is a zip archive")

	var pdf bytes.Buffer
	require.NoError(t, env.reports.InventoryPDF(ctx, &pdf))
	assert.True(t, bytes.HasPrefix(pdf.Bytes(), []byte("%PDF")))
}

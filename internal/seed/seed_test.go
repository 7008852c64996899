package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/locodavid123/parcial1/internal/service"
	"github.com/locodavid123/parcial1/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const menuYAML = `
products:
  - name: Bandeja Paisa
    description: frijoles, arroz, chicharrón
    price: "32900"
    stock: 20
    min_stock: 5
  - name: Limonada de coco
    price: "8,50"
    stock: 40
    image_url: https://img.example.com/limonada.png
`

func TestParse(t *testing.T) {
	menu, err := Parse([]byte(menuYAML))
	require.NoError(t, err)
	require.Len(t, menu.Products, 2)
	assert.Equal(t, 5, menu.Products[0].MinStock)

	_, err = Parse([]byte("products:\n  - price: 1\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("products:\n  - name: X\n    price: abc\n"))
	assert.Error(t, err)
}

func TestApplyUpsertsByName(t *testing.T) {
	catalog := service.NewCatalogService(storetest.NewSQLite(t), nil)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "menu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(menuYAML), 0o600))
	menu, err := Load(path)
	require.NoError(t, err)

	res, err := Apply(ctx, catalog, menu)
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 2}, res)

	menu.Products[0].Name = "bandeja paisa"
	menu.Products[0].Stock = 7
	res, err = Apply(ctx, catalog, menu)
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 2}, res)

	products, err := catalog.List(ctx, "bandeja")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.InDelta(t, 32900.0, products[0].Price, 1e-9)
	assert.Equal(t, 7, products[0].Stock)

	lemonade, err := catalog.List(ctx, "limonada")
	require.NoError(t, err)
	require.Len(t, lemonade, 1)
	assert.InDelta(t, 8.5, lemonade[0].Price, 1e-9)
}

package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var day = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func TestWriteStockCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteStockCSV(&buf, []model.Product{
		{ID: "p1", Name: "Arepa", Description: "Maíz, queso", Price: 3000, Stock: 2, MinStock: 5},
		{ID: "p2", Name: "Jugo", Price: 4500.5, Stock: 20, MinStock: 5},
	})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "product_id", rows[0][0])
	assert.Equal(t, []string{"p1", "Arepa", "Maíz, queso", "3000.00", "2", "5", "true"}, rows[1])
	assert.Equal(t, "4500.50", rows[2][3])
	assert.Equal(t, "false", rows[2][6])
}

func TestWriteSalesCSV(t *testing.T) {
	orders := []model.OrderView{
		{
			Order: model.Order{
				ID: "o1", ClientID: "c1", Status: model.StatusPending, Total: 9000, CreatedAt: day,
				Items: []model.OrderItem{
					{ProductID: "p1", ProductName: "Arepa", Quantity: 2, UnitPrice: 3000},
					{ProductID: "p2", ProductName: "Jugo", Quantity: 1, UnitPrice: 3000},
				},
			},
			ClientName:  "Ana",
			ClientEmail: "ana@example.com",
		},
		{Order: model.Order{ID: "o2", ClientID: "gone", Status: model.StatusCancelled, CreatedAt: day,
			Items: []model.OrderItem{{ProductID: "p1", Quantity: 1, UnitPrice: 3000}}}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSalesCSV(&buf, orders))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"o1", "c1", "Ana", "ana@example.com", "2025-03-14", "pending", "9000.00",
		"p1", "Arepa", "2", "3000.00", "6000.00"}, rows[1])
	assert.Equal(t, "p2", rows[2][7])
	assert.Equal(t, "N/A", rows[3][2])
	assert.Equal(t, "cancelled", rows[3][5])
}

func TestWriteClientPurchasesXLSX(t *testing.T) {
	client := model.Client{ID: "c1", Name: "María Fernanda de los Ángeles Restrepo"}
	orders := []model.Order{
		{ID: "o1", Status: model.StatusCompleted, Total: 10000, CreatedAt: day},
		{ID: "o2", Status: model.StatusCancelled, Total: 5000, CreatedAt: day},
		{ID: "o3", Status: model.StatusPending, Total: 2500.5, CreatedAt: day},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteClientPurchasesXLSX(&buf, client, orders))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 1)
	assert.LessOrEqual(t, len([]rune(sheets[0])), 31)
	assert.True(t, strings.HasPrefix(sheets[0], "Compras de María"))

	title, err := f.GetCellValue(sheets[0], "A1")
	require.NoError(t, err)
	assert.Contains(t, title, "ID: c1")

	id, err := f.GetCellValue(sheets[0], "A5")
	require.NoError(t, err)
	assert.Equal(t, "o2", id)

	label, err := f.GetCellValue(sheets[0], "C8")
	require.NoError(t, err)
	assert.Equal(t, "Total comprado (no cancelado):", label)
}

func TestPurchasesTotalSkipsCancelled(t *testing.T) {
	total := PurchasesTotal([]model.Order{
		{Status: model.StatusCompleted, Total: 10000},
		{Status: model.StatusCancelled, Total: 5000},
		{Status: model.StatusPending, Total: 2500.5},
	})
	assert.InDelta(t, 12500.5, total, 1e-9)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Compras de Ana", sheetName("Ana"))
	assert.Equal(t, "Compras de AB", sheetName("A/B?"))
	assert.Len(t, []rune(sheetName(strings.Repeat("x", 50))), 31)
}

func TestWriteInventoryPDF(t *testing.T) {
	products := make([]model.Product, 0, 80)
	for i := 0; i < 80; i++ {
		products = append(products, model.Product{ID: "p", Name: "Empanada de pipián", Price: 2500, Stock: i % 7, MinStock: 3})
	}

	var buf bytes.Buffer
	require.NoError(t, WriteInventoryPDF(&buf, products, day))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

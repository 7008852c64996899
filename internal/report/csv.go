// Package report renders catalog and sales reports.
package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/locodavid123/parcial1/internal/model"
)

const dateLayout = "2006-01-02"

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// WriteStockCSV writes one row per product
func WriteStockCSV(w io.Writer, products []model.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"product_id", "name", "description", "price", "stock", "min_stock", "low_stock"}); err != nil {
		return err
	}
	for _, p := range products {
		row := []string{
			p.ID,
			p.Name,
			p.Description,
			money(p.Price),
			strconv.Itoa(p.Stock),
			strconv.Itoa(p.MinStock),
			strconv.FormatBool(p.LowStock()),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSalesCSV writes one row per order line, repeating the order columns
func WriteSalesCSV(w io.Writer, orders []model.OrderView) error {
	cw := csv.NewWriter(w)
	header := []string{
		"order_id", "client_id", "client_name", "client_email", "date", "status", "order_total",
		"product_id", "product_name", "quantity", "unit_price", "subtotal",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, o := range orders {
		name, email := o.ClientName, o.ClientEmail
		if name == "" {
			name = "N/A"
		}
		if email == "" {
			email = "N/A"
		}
		for _, it := range o.Items {
			row := []string{
				o.ID,
				o.ClientID,
				name,
				email,
				o.CreatedAt.Format(dateLayout),
				string(o.Status),
				money(o.Total),
				it.ProductID,
				it.ProductName,
				strconv.Itoa(it.Quantity),
				money(it.UnitPrice),
				money(it.Subtotal()),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

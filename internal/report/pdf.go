package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/locodavid123/parcial1/internal/model"
)

var inventoryColumns = []struct {
	title string
	width float64
	align string
}{
	{"Producto", 70, "L"},
	{"Precio", 30, "R"},
	{"Stock", 22, "R"},
	{"Mínimo", 22, "R"},
	{"Estado", 36, "C"},
}

// WriteInventoryPDF renders an A4 table of the catalog with stock levels
func WriteInventoryPDF(w io.Writer, products []model.Product, generatedAt time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Reporte de inventario", true)
	pdf.SetAutoPageBreak(true, 15)

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for _, c := range inventoryColumns {
			pdf.CellFormat(c.width, 8, tr(c.title), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 10)
	}
	pdf.SetHeaderFuncMode(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	}, true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Reporte de inventario"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Generado: "+generatedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)
	header()

	var units int
	for _, p := range products {
		status := "OK"
		if p.LowStock() {
			status = "Reabastecer"
			pdf.SetTextColor(180, 0, 0)
		}
		cells := []string{
			truncate(p.Name, 38),
			"$" + money(p.Price),
			strconv.Itoa(p.Stock),
			strconv.Itoa(p.MinStock),
			status,
		}
		for i, c := range inventoryColumns {
			pdf.CellFormat(c.width, 7, tr(cells[i]), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		units += p.Stock
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Productos: %d   Unidades en stock: %d", len(products), units)), "", 1, "L", false, 0, "")

	return pdf.Output(w)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

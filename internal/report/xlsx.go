package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// sheetName builds a valid worksheet name: no []:*?/\ and at most 31 characters
func sheetName(clientName string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return -1
		}
		return r
	}, "Compras de "+clientName)
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}

// PurchasesTotal sums the orders that were not cancelled
func PurchasesTotal(orders []model.Order) float64 {
	var total float64
	for _, o := range orders {
		if o.Status != model.StatusCancelled {
			total += o.Total
		}
	}
	return model.RoundMoney(total)
}

// WriteClientPurchasesXLSX writes a workbook listing the orders of one client
// followed by the total of the non-cancelled ones
func WriteClientPurchasesXLSX(w io.Writer, client model.Client, orders []model.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(client.Name)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return err
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	moneyFmt := `"$"#,##0.00`
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &moneyFmt})
	if err != nil {
		return err
	}

	set := func(cell string, value interface{}) {
		if err == nil {
			err = f.SetCellValue(sheet, cell, value)
		}
	}
	style := func(from, to string, id int) {
		if err == nil {
			err = f.SetCellStyle(sheet, from, to, id)
		}
	}

	set("A1", fmt.Sprintf("Reporte de compras para: %s (ID: %s)", client.Name, client.ID))
	if err == nil {
		err = f.MergeCell(sheet, "A1", "D1")
	}
	style("A1", "A1", titleStyle)

	set("A3", "ID Pedido")
	set("B3", "Fecha")
	set("C3", "Estado")
	set("D3", "Total")
	style("A3", "D3", boldStyle)

	row := 4
	for _, o := range orders {
		set(fmt.Sprintf("A%d", row), o.ID)
		set(fmt.Sprintf("B%d", row), o.CreatedAt.Format(dateLayout))
		set(fmt.Sprintf("C%d", row), string(o.Status))
		set(fmt.Sprintf("D%d", row), o.Total)
		style(fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), moneyStyle)
		row++
	}

	row++
	set(fmt.Sprintf("C%d", row), "Total comprado (no cancelado):")
	set(fmt.Sprintf("D%d", row), PurchasesTotal(orders))
	style(fmt.Sprintf("C%d", row), fmt.Sprintf("C%d", row), boldStyle)
	style(fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), totalStyle)
	if err != nil {
		return err
	}

	for col, width := range map[string]float64{"A": 38, "B": 14, "C": 30, "D": 16} {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return f.Write(w)
}

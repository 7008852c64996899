package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	mimeCSV  = "text/csv; charset=utf-8"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePDF  = "application/pdf"
)

// attachment renders a report into memory first so a failure still gets a JSON error
func attachment(c echo.Context, filename, contentType string, render func(buf *bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return respondError(c, err, "generate report")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

func stamped(name, ext string) string {
	return fmt.Sprintf("%s-%s.%s", name, time.Now().Format("20060102"), ext)
}

func (h *Handler) StockReport(c echo.Context) error {
	return attachment(c, stamped("stock", "csv"), mimeCSV, func(buf *bytes.Buffer) error {
		return h.reports.StockCSV(c.Request().Context(), buf)
	})
}

func (h *Handler) SalesReport(c echo.Context) error {
	return attachment(c, stamped("sales", "csv"), mimeCSV, func(buf *bytes.Buffer) error {
		return h.reports.SalesCSV(c.Request().Context(), buf)
	})
}

// ClientPurchasesReport finds the client by ?query= (id or part of the name)
func (h *Handler) ClientPurchasesReport(c echo.Context) error {
	ctx := c.Request().Context()
	client, err := h.reports.FindClient(ctx, c.QueryParam("query"))
	if err != nil {
		return respondError(c, err, "find client")
	}
	return attachment(c, stamped("purchases-"+client.ID, "xlsx"), mimeXLSX, func(buf *bytes.Buffer) error {
		return h.reports.ClientPurchasesXLSX(ctx, client, buf)
	})
}

func (h *Handler) InventoryReport(c echo.Context) error {
	return attachment(c, stamped("inventory", "pdf"), mimePDF, func(buf *bytes.Buffer) error {
		return h.reports.InventoryPDF(c.Request().Context(), buf)
	})
}

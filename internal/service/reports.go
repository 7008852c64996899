package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/report"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/prometheus"
)

// ReportService gathers data for downloadable reports
type ReportService struct {
	store store.Store
	now   func() time.Time
}

func NewReportService(s store.Store) *ReportService {
	return &ReportService{store: s, now: time.Now}
}

func (s *ReportService) StockCSV(ctx context.Context, w io.Writer) error {
	products, err := s.store.Products().List(ctx, store.ProductFilter{})
	if err != nil {
		return err
	}
	prometheus.RecordReport("stock_csv")
	return report.WriteStockCSV(w, products)
}

func (s *ReportService) SalesCSV(ctx context.Context, w io.Writer) error {
	orders, err := s.store.Orders().List(ctx, store.OrderFilter{})
	if err != nil {
		return err
	}
	clients, err := s.store.Clients().List(ctx)
	if err != nil {
		return err
	}
	byID := make(map[string]model.Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}
	prometheus.RecordReport("sales_csv")
	return report.WriteSalesCSV(w, withClients(orders, byID))
}

// FindClient resolves a report query: an exact client id, else the first
// client whose name contains the query, ignoring case
func (s *ReportService) FindClient(ctx context.Context, query string) (*model.Client, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("a client name or id is required")
	}
	if c, err := s.store.Clients().GetByID(ctx, query); err == nil {
		return c, nil
	}

	clients, err := s.store.Clients().List(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	for i := range clients {
		if strings.Contains(strings.ToLower(clients[i].Name), needle) {
			return &clients[i], nil
		}
	}
	return nil, fmt.Errorf("no client matches %q: %w", query, store.ErrNotFound)
}

// ClientPurchasesXLSX writes the purchase history of a client found with FindClient
func (s *ReportService) ClientPurchasesXLSX(ctx context.Context, client *model.Client, w io.Writer) error {
	orders, err := s.store.Orders().List(ctx, store.OrderFilter{ClientID: client.ID})
	if err != nil {
		return err
	}
	prometheus.RecordReport("client_purchases_xlsx")
	return report.WriteClientPurchasesXLSX(w, *client, orders)
}

func (s *ReportService) InventoryPDF(ctx context.Context, w io.Writer) error {
	products, err := s.store.Products().List(ctx, store.ProductFilter{})
	if err != nil {
		return err
	}
	prometheus.RecordReport("inventory_pdf")
	return report.WriteInventoryPDF(w, products, s.now())
}

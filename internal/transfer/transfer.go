// Package transfer copies every record from one datastore backend to another.
package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/pkg/logger"
	"go.uber.org/zap"
)

// Stats counts the records of one collection
type Stats struct {
	Copied  int `json:"copied"`
	Skipped int `json:"skipped"`
}

// Report is the outcome of Copy
type Report struct {
	Users    Stats `json:"users"`
	Clients  Stats `json:"clients"`
	Products Stats `json:"products"`
	Orders   Stats `json:"orders"`
}

// Copy writes the records of src into dst keeping their ids. Records whose id
// already exists in dst, or that collide with a unique field there, are skipped,
// so running it twice is harmless.
func Copy(ctx context.Context, src, dst store.Store) (*Report, error) {
	log := logger.FromContext(ctx).With(zap.String("from", src.Name()), zap.String("to", dst.Name()))
	report := &Report{}

	users, err := src.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for i := range users {
		u := users[i]
		if err := copyOne(ctx, &report.Users, u.ID, dst.Users().GetByID, func(ctx context.Context) error {
			return dst.Users().Create(ctx, &u)
		}); err != nil {
			return report, fmt.Errorf("copy user %s: %w", u.ID, err)
		}
	}

	clients, err := src.Clients().List(ctx)
	if err != nil {
		return report, fmt.Errorf("list clients: %w", err)
	}
	for i := range clients {
		c := clients[i]
		if err := copyOne(ctx, &report.Clients, c.ID, dst.Clients().GetByID, func(ctx context.Context) error {
			return dst.Clients().Create(ctx, &c)
		}); err != nil {
			return report, fmt.Errorf("copy client %s: %w", c.ID, err)
		}
	}

	products, err := src.Products().List(ctx, store.ProductFilter{})
	if err != nil {
		return report, fmt.Errorf("list products: %w", err)
	}
	for i := range products {
		p := products[i]
		if err := copyOne(ctx, &report.Products, p.ID, dst.Products().GetByID, func(ctx context.Context) error {
			return dst.Products().Create(ctx, &p)
		}); err != nil {
			return report, fmt.Errorf("copy product %s: %w", p.ID, err)
		}
	}

	orders, err := src.Orders().List(ctx, store.OrderFilter{})
	if err != nil {
		return report, fmt.Errorf("list orders: %w", err)
	}
	for i := range orders {
		o := orders[i]
		if err := copyOne(ctx, &report.Orders, o.ID, dst.Orders().GetByID, func(ctx context.Context) error {
			return dst.Orders().Create(ctx, &o)
		}); err != nil {
			return report, fmt.Errorf("copy order %s: %w", o.ID, err)
		}
	}

	log.Info("Store copied",
		zap.Int("users", report.Users.Copied),
		zap.Int("clients", report.Clients.Copied),
		zap.Int("products", report.Products.Copied),
		zap.Int("orders", report.Orders.Copied))
	return report, nil
}

func copyOne[T any](ctx context.Context, stats *Stats, id string,
	get func(context.Context, string) (*T, error), create func(context.Context) error) error {
	_, err := get(ctx, id)
	switch {
	case err == nil:
		stats.Skipped++
		return nil
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	if err := create(ctx); err != nil {
		if errors.Is(err, store.ErrConflict) {
			logger.FromContext(ctx).Warn("Record collides with an existing one, skipping", zap.String("id", id), zap.Error(err))
			stats.Skipped++
			return nil
		}
		return err
	}
	stats.Copied++
	return nil
}

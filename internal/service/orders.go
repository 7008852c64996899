package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/pkg/logger"
	"github.com/locodavid123/parcial1/prometheus"
	"go.uber.org/zap"
)

// MaxItemQuantity bounds the units of one product in a cart or order
const MaxItemQuantity = 10000

// CartLine is one product and quantity requested by the caller
type CartLine struct {
	ProductID string
	Quantity  int
}

// QuoteLine prices one cart line against the current catalog
type QuoteLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
	Available int     `json:"available"`
	Problem   string  `json:"problem,omitempty"`
}

// Quote is a priced cart. Valid is false when any line has a problem.
type Quote struct {
	Lines []QuoteLine `json:"lines"`
	Total float64     `json:"total"`
	Valid bool        `json:"valid"`
}

// PlaceOrderInput describes a checkout. Staff may name an existing client
// or pass the details of a new one; customers always order for themselves.
type PlaceOrderInput struct {
	ClientID   string
	ClientInfo *ClientInput
	Items      []CartLine
}

// OrderService places orders and keeps product stock consistent with them
type OrderService struct {
	store   store.Store
	catalog *CatalogService
	mailer  Mailer
}

func NewOrderService(s store.Store, catalog *CatalogService, mailer Mailer) *OrderService {
	return &OrderService{store: s, catalog: catalog, mailer: mailer}
}

// mergeLines sums duplicate products and sorts by product id, so concurrent
// orders touch rows in the same sequence
func mergeLines(lines []CartLine) ([]CartLine, error) {
	if len(lines) == 0 {
		return nil, invalid("the order has no items")
	}
	byID := make(map[string]int, len(lines))
	for _, l := range lines {
		id := strings.TrimSpace(l.ProductID)
		if id == "" {
			return nil, invalid("every item needs a product_id")
		}
		if l.Quantity <= 0 {
			return nil, invalid("quantity of product %s must be positive", id)
		}
		if l.Quantity > MaxItemQuantity || byID[id] > MaxItemQuantity-l.Quantity {
			return nil, invalid("quantity of product %s must not exceed %d", id, MaxItemQuantity)
		}
		byID[id] += l.Quantity
	}
	merged := make([]CartLine, 0, len(byID))
	for id, q := range byID {
		merged = append(merged, CartLine{ProductID: id, Quantity: q})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProductID < merged[j].ProductID })
	return merged, nil
}

// Quote prices a cart without reserving anything
func (s *OrderService) Quote(ctx context.Context, lines []CartLine) (*Quote, error) {
	merged, err := mergeLines(lines)
	if err != nil {
		return nil, err
	}

	q := &Quote{Lines: make([]QuoteLine, 0, len(merged)), Valid: true}
	for _, l := range merged {
		ql := QuoteLine{ProductID: l.ProductID, Quantity: l.Quantity}
		p, err := s.catalog.Get(ctx, l.ProductID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			ql.Problem = "product not found"
		case err != nil:
			return nil, err
		default:
			ql.Name = p.Name
			ql.UnitPrice = p.Price
			ql.Available = p.Stock
			ql.Subtotal = model.RoundMoney(float64(l.Quantity) * p.Price)
			if p.Stock < l.Quantity {
				ql.Problem = fmt.Sprintf("only %d in stock", p.Stock)
			}
		}
		if ql.Problem != "" {
			q.Valid = false
		}
		q.Total += ql.Subtotal
		q.Lines = append(q.Lines, ql)
	}
	q.Total = model.RoundMoney(q.Total)
	return q, nil
}

// Place creates a pending order. Stock for every line is reserved with a
// conditional decrement; if any line cannot be covered nothing is kept.
func (s *OrderService) Place(ctx context.Context, actor Actor, in PlaceOrderInput) (*model.OrderView, error) {
	log := logger.FromContext(ctx)

	if !actor.IsSet() {
		return nil, ErrForbidden
	}
	lines, err := mergeLines(in.Items)
	if err != nil {
		return nil, err
	}

	var (
		order  *model.Order
		client *model.Client
		levels = make(map[string]model.Product, len(lines))
	)
	err = runAtomically(ctx, s.store, func(ctx context.Context, tx store.Repositories, undo *undoLog) error {
		var err error
		client, err = s.resolveClient(ctx, tx, actor, in, undo)
		if err != nil {
			return err
		}

		order = &model.Order{ClientID: client.ID, Status: model.StatusPending}
		for _, l := range lines {
			p, err := tx.Products().GetByID(ctx, l.ProductID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("product %s: %w", l.ProductID, store.ErrNotFound)
				}
				return err
			}

			level, err := tx.Products().AdjustStock(ctx, l.ProductID, -l.Quantity)
			if err != nil {
				return err
			}
			prometheus.RecordStockAdjustment("decrement")
			undo.Add("restock "+l.ProductID, compensateStock(tx, l.ProductID, l.Quantity))

			p.Stock = level
			levels[p.ID] = *p
			order.Items = append(order.Items, model.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    l.Quantity,
				UnitPrice:   p.Price,
			})
		}
		order.Total = order.ComputeTotal()
		return tx.Orders().Create(ctx, order)
	})
	if err != nil {
		prometheus.RecordOrderOperation("place", outcome(err))
		log.Warn("Order placement failed", zap.String("user_id", actor.UserID), zap.Error(err))
		return nil, err
	}

	prometheus.RecordOrderOperation("place", "success")
	for _, p := range levels {
		prometheus.UpdateProductInventory(p.ID, p.Name, p.Stock)
	}
	s.catalog.Invalidate(ctx)
	log.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("client_id", client.ID),
		zap.Int("items", len(order.Items)),
		zap.Float64("total", order.Total))

	s.sendConfirmation(ctx, order, client)
	return &model.OrderView{Order: *order, ClientName: client.Name, ClientEmail: client.Email}, nil
}

// compensateStock undoes a decrement on backends without rollback
func compensateStock(tx store.Repositories, productID string, quantity int) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if _, err := tx.Products().AdjustStock(ctx, productID, quantity); err != nil {
			return err
		}
		prometheus.RecordStockAdjustment("compensate")
		return nil
	}
}

func (s *OrderService) resolveClient(ctx context.Context, tx store.Repositories, actor Actor, in PlaceOrderInput, undo *undoLog) (*model.Client, error) {
	if !actor.IsStaff() {
		user, err := tx.Users().GetByID(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		return linkClient(ctx, tx, user, undo)
	}

	if in.ClientID != "" {
		c, err := tx.Clients().GetByID(ctx, in.ClientID)
		if err != nil {
			return nil, fmt.Errorf("client %s: %w", in.ClientID, err)
		}
		return c, nil
	}
	if in.ClientInfo == nil {
		return nil, invalid("client_id or client_info is required")
	}

	info, err := in.ClientInfo.normalize()
	if err != nil {
		return nil, err
	}
	if info.Email != "" {
		c, err := tx.Clients().GetByEmail(ctx, info.Email)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	c := &model.Client{Name: info.Name, Email: info.Email, Phone: info.Phone}
	if err := tx.Clients().Create(ctx, c); err != nil {
		return nil, err
	}
	undo.Add("delete client "+c.ID, func(ctx context.Context) error {
		return tx.Clients().Delete(ctx, c.ID)
	})
	return c, nil
}

func (s *OrderService) sendConfirmation(ctx context.Context, o *model.Order, c *model.Client) {
	if c.Email == "" {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hola %s,\n\nRecibimos tu pedido %s:\n\n", c.Name, o.ID)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "  %d x %s  $%.2f\n", it.Quantity, it.ProductName, it.Subtotal())
	}
	fmt.Fprintf(&b, "\nTotal: $%.2f\n", o.Total)

	if err := s.mailer.Send(ctx, c.Email, "Confirmación de pedido", b.String()); err != nil {
		logger.FromContext(ctx).Warn("Order confirmation not sent",
			zap.String("order_id", o.ID),
			zap.Error(err))
	}
}

// List returns every order for staff and the caller's own orders for customers, newest first
func (s *OrderService) List(ctx context.Context, actor Actor) ([]model.OrderView, error) {
	if actor.IsStaff() {
		orders, err := s.store.Orders().List(ctx, store.OrderFilter{})
		if err != nil {
			return nil, err
		}
		clients, err := s.store.Clients().List(ctx)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]model.Client, len(clients))
		for _, c := range clients {
			byID[c.ID] = c
		}
		return withClients(orders, byID), nil
	}

	c, err := s.store.Clients().GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []model.OrderView{}, nil
		}
		return nil, err
	}
	orders, err := s.store.Orders().List(ctx, store.OrderFilter{ClientID: c.ID})
	if err != nil {
		return nil, err
	}
	return withClients(orders, map[string]model.Client{c.ID: *c}), nil
}

// Get returns one order to staff or to the customer who owns it
func (s *OrderService) Get(ctx context.Context, actor Actor, id string) (*model.OrderView, error) {
	o, err := s.store.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, actor, o)
}

func (s *OrderService) view(ctx context.Context, actor Actor, o *model.Order) (*model.OrderView, error) {
	v := &model.OrderView{Order: *o}
	c, err := s.store.Clients().GetByID(ctx, o.ClientID)
	switch {
	case err == nil:
		v.ClientName, v.ClientEmail = c.Name, c.Email
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	if !actor.IsStaff() && (c == nil || c.UserID == nil || *c.UserID != actor.UserID) {
		return nil, ErrForbidden
	}
	return v, nil
}

// UpdateStatus moves an order through its lifecycle. Cancelling returns the
// reserved stock; setting the current status again changes nothing.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id, statusName string) (*model.OrderView, error) {
	to, err := model.ParseOrderStatus(statusName)
	if err != nil {
		return nil, invalid("%v", err)
	}

	o, err := s.transition(ctx, id, to)
	if err != nil {
		prometheus.RecordOrderOperation("update_status", outcome(err))
		return nil, err
	}
	prometheus.RecordOrderOperation("update_status", "success")
	return s.view(ctx, actor, o)
}

// Delete removes an order, returning its stock first unless it was cancelled already
func (s *OrderService) Delete(ctx context.Context, id string) error {
	o, err := s.transition(ctx, id, model.StatusCancelled)
	if err != nil {
		prometheus.RecordOrderOperation("delete", outcome(err))
		return err
	}
	if err := s.store.Orders().Delete(ctx, o.ID); err != nil {
		prometheus.RecordOrderOperation("delete", outcome(err))
		return err
	}
	prometheus.RecordOrderOperation("delete", "success")
	logger.FromContext(ctx).Info("Order deleted", zap.String("order_id", id))
	return nil
}

// transition applies a status change. The status is switched with a
// compare-and-set before any stock moves, so only one caller can win the
// move to cancelled and restore the stock.
func (s *OrderService) transition(ctx context.Context, id string, to model.OrderStatus) (*model.Order, error) {
	log := logger.FromContext(ctx)

	var (
		order    *model.Order
		restored []model.Product
	)
	err := runAtomically(ctx, s.store, func(ctx context.Context, tx store.Repositories, undo *undoLog) error {
		var err error
		order, err = tx.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		from := order.Status
		if from == to {
			return nil
		}
		if !model.CanTransition(from, to) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
		}

		if err := tx.Orders().UpdateStatus(ctx, id, from, to); err != nil {
			return err
		}
		undo.Add("revert status of "+id, func(ctx context.Context) error {
			return tx.Orders().UpdateStatus(ctx, id, to, from)
		})
		order.Status = to

		if to != model.StatusCancelled {
			return nil
		}
		items := append([]model.OrderItem(nil), order.Items...)
		sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
		for _, it := range items {
			level, err := tx.Products().AdjustStock(ctx, it.ProductID, it.Quantity)
			if errors.Is(err, store.ErrNotFound) {
				log.Warn("Product of cancelled order no longer exists",
					zap.String("order_id", id),
					zap.String("product_id", it.ProductID))
				continue
			}
			if err != nil {
				return err
			}
			prometheus.RecordStockAdjustment("restore")
			productID, qty := it.ProductID, it.Quantity
			undo.Add("unrestock "+productID, func(ctx context.Context) error {
				_, err := tx.Products().AdjustStock(ctx, productID, -qty)
				return err
			})
			restored = append(restored, model.Product{ID: it.ProductID, Name: it.ProductName, Stock: level})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(restored) > 0 {
		for _, p := range restored {
			prometheus.UpdateProductInventory(p.ID, p.Name, p.Stock)
		}
		s.catalog.Invalidate(ctx)
		log.Info("Stock restored for cancelled order",
			zap.String("order_id", id),
			zap.Int("products", len(restored)))
	}
	return order, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, store.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, store.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

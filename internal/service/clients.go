package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
)

type ClientInput struct {
	Name  string
	Email string
	Phone string
}

func (in ClientInput) normalize() (ClientInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" {
		return in, invalid("client name is required")
	}
	return in, nil
}

// ClientService manages customer records
type ClientService struct {
	store store.Store
}

func NewClientService(s store.Store) *ClientService {
	return &ClientService{store: s}
}

func (s *ClientService) List(ctx context.Context) ([]model.Client, error) {
	return s.store.Clients().List(ctx)
}

func (s *ClientService) Get(ctx context.Context, id string) (*model.Client, error) {
	return s.store.Clients().GetByID(ctx, id)
}

func (s *ClientService) Create(ctx context.Context, in ClientInput) (*model.Client, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	c := &model.Client{Name: in.Name, Email: in.Email, Phone: in.Phone}
	if err := s.store.Clients().Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ClientService) Update(ctx context.Context, id string, in ClientInput) (*model.Client, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	c, err := s.store.Clients().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name, c.Email, c.Phone = in.Name, in.Email, in.Phone
	if err := s.store.Clients().Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a client that has no orders
func (s *ClientService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.Clients().GetByID(ctx, id); err != nil {
		return err
	}
	orders, err := s.store.Orders().List(ctx, store.OrderFilter{ClientID: id})
	if err != nil {
		return err
	}
	if len(orders) > 0 {
		return fmt.Errorf("%w: client %s has %d orders", store.ErrConflict, id, len(orders))
	}
	return s.store.Clients().Delete(ctx, id)
}

// Orders lists the orders of one client, newest first
func (s *ClientService) Orders(ctx context.Context, id string) ([]model.OrderView, error) {
	c, err := s.store.Clients().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	orders, err := s.store.Orders().List(ctx, store.OrderFilter{ClientID: id})
	if err != nil {
		return nil, err
	}
	return withClients(orders, map[string]model.Client{c.ID: *c}), nil
}

// withClients attaches client name and email to each order
func withClients(orders []model.Order, clients map[string]model.Client) []model.OrderView {
	views := make([]model.OrderView, 0, len(orders))
	for _, o := range orders {
		v := model.OrderView{Order: o}
		if c, ok := clients[o.ClientID]; ok {
			v.ClientName, v.ClientEmail = c.Name, c.Email
		}
		views = append(views, v)
	}
	return views
}

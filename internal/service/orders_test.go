package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	burger := env.product(t, "Hamburguesa", 12.5, 10)
	soda := env.product(t, "Gaseosa", 2.99, 5)
	customer := env.actor(t, model.RoleClient, "ana@example.com")

	view, err := env.orders.Place(ctx, customer, PlaceOrderInput{Items: []CartLine{
		{ProductID: burger.ID, Quantity: 1},
		{ProductID: soda.ID, Quantity: 2},
		{ProductID: burger.ID, Quantity: 1},
	}})
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, view.Status)
	assert.Equal(t, "ana@example.com", view.ClientEmail)
	assert.Len(t, view.Items, 2, "duplicate lines are merged")
	assert.InDelta(t, 30.98, view.Total, 1e-9)
	assert.Equal(t, 8, env.stock(t, burger.ID))
	assert.Equal(t, 3, env.stock(t, soda.ID))

	mail := env.mailer.last()
	assert.Equal(t, "ana@example.com", mail.to)
	assert.Contains(t, mail.body, view.ID)

	stored, err := env.orders.Get(ctx, customer, view.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
}

func TestPlaceOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.product(t, "Arepa", 3, 10)
	customer := env.actor(t, model.RoleClient, "ana@example.com")
	staff := env.actor(t, model.RoleEmployee, "emp@example.com")

	_, err := env.orders.Place(ctx, Actor{}, PlaceOrderInput{Items: []CartLine{{ProductID: p.ID, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.orders.Place(ctx, customer, PlaceOrderInput{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.orders.Place(ctx, customer, PlaceOrderInput{Items: []CartLine{{ProductID: p.ID, Quantity: 0}}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.orders.Place(ctx, customer, PlaceOrderInput{Items: []CartLine{{ProductID: "missing", Quantity: 1}}})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = env.orders.Place(ctx, staff, PlaceOrderInput{Items: []CartLine{{ProductID: p.ID, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrValidation, "staff must name the client")

	assert.Equal(t, 10, env.stock(t, p.ID))
}

func TestPlaceOrderRejectsOversizedQuantities(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.product(t, "Arepa", 3, 10)
	customer := env.actor(t, model.RoleClient, "ana@example.com")

	for name, lines := range map[string][]CartLine{
		"sum overflows int": {{ProductID: p.ID, Quantity: math.MaxInt}, {ProductID: p.ID, Quantity: math.MaxInt}},
		"single line":       {{ProductID: p.ID, Quantity: MaxItemQuantity + 1}},
		"merged lines":      {{ProductID: p.ID, Quantity: MaxItemQuantity}, {ProductID: p.ID, Quantity: 1}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := env.orders.Place(ctx, customer, PlaceOrderInput{Items: lines})
			assert.ErrorIs(t, err, ErrValidation)

			_, err = env.orders.Quote(ctx, lines)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	orders, err := env.orders.List(ctx, customer)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, 10, env.stock(t, p.ID))
}

func TestStaffOrderForWalkInClient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.product(t, "Arepa", 3, 10)
	staff := env.actor(t, model.RoleEmployee, "emp@example.com")

	info := &ClientInput{Name: "Walk In", Email: "WALK@example.com"}
	first, err := env.orders.Place(ctx, staff, PlaceOrderInput{ClientInfo: info, Items: []CartLine{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)
	second, err := env.orders.Place(ctx, staff, PlaceOrderInput{ClientInfo: info, Items: []CartLine{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)

	assert.Equal(t, first.ClientID, second.ClientID, "the client is reused by email")
	assert.Equal(t, "walk@example.com", first.ClientEmail)

	third, err := env.orders.Place(ctx, staff, PlaceOrderInput{ClientID: first.ClientID, Items: []CartLine{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)
	assert.Equal(t, first.ClientID, third.ClientID)
	assert.Equal(t, 7, env.stock(t, p.ID))
}

func TestPlaceOrderInsufficientStockKeepsNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.product(t, "A", 1, 5)
	b := env.product(t, "B", 1, 1)
	customer := env.actor(t, model.RoleClient, "ana@example.com")

	_, err := env.orders.Place(ctx, customer, PlaceOrderInput{Items: []CartLine{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 3},
	}})
	require.ErrorIs(t, err, store.ErrInsufficientStock)

	var stockErr *store.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, b.ID, stockErr.ProductID)

	assert.Equal(t, 5, env.stock(t, a.ID))
	assert.Equal(t, 1, env.stock(t, b.ID))
	orders, err := env.orders.List(ctx, customer)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrderCompensatesWithoutTransactions(t *testing.T) {
	tests := []struct {
		name string
		wrap func(s store.Store) *storetest.NonAtomic
	}{
		{"second decrement fails", func(s store.Store) *storetest.NonAtomic {
			return &storetest.NonAtomic{Store: s, FailAdjustAfter: 2}
		}},
		{"order insert fails", func(s store.Store) *storetest.NonAtomic {
			return &storetest.NonAtomic{Store: s, FailOrderCreate: errors.New("insert failed")}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := newTestEnv(t)
			a := base.product(t, "A", 1, 5)
			b := base.product(t, "B", 1, 5)
			customer := base.actor(t, model.RoleClient, "ana@example.com")

			env := newTestEnvWithStore(t, tt.wrap(base.store))
			_, err := env.orders.Place(context.Background(), customer, PlaceOrderInput{Items: []CartLine{
				{ProductID: a.ID, Quantity: 2},
				{ProductID: b.ID, Quantity: 2},
			}})
			require.Error(t, err)

			assert.Equal(t, 5, base.stock(t, a.ID))
			assert.Equal(t, 5, base.stock(t, b.ID))
			orders, err := base.store.Orders().List(context.Background(), store.OrderFilter{})
			require.NoError(t, err)
			assert.Empty(t, orders)
		})
	}
}

func TestCancelRestoresStockOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.product(t, "Arepa", 3, 10)
	customer := env.actor(t, model.RoleClient, "ana@example.com")
	staff := env.actor(t, model.RoleAdmin, "admin@example.com")

	order, err := env.orders.Place(ctx, customer, PlaceOrderInput{Items: []CartLine{{ProductID: p.ID, Quantity: 4}}})
	require.NoError(t, err)
	require.Equal(t, 6, env.stock(t, p.ID))

	completed, err := env.orders.UpdateStatus(ctx, staff, order.ID, "completado")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, completed.Status)
	assert.Equal(t, 6, env.stock(t, p.ID))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.orders.UpdateStatus(ctx, staff, order.ID, "cancelled")
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, env.stock(t, p.ID))

	again, err := env.orders.UpdateStatus(ctx, staff, order.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, again.Status)
	assert.Equal(t, 10, env.stock(t, p.ID))

	_, err = env.orders.UpdateStatus(ctx, staff, order.ID, "pending")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.orders.UpdateStatus(ctx, staff, order.ID, "shipped")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.product(t, "Arepa", 3, 10)
	customer := env.actor(t, model.RoleClient, "ana@example.com")
	staff := env.actor(t, model.RoleAdmin, "admin@example.com")

	pending, err := env.orders.Place(ctx, customer, PlaceOrderInput{Items: []CartLine{{ProductID: p.ID, Quantity: 3}}})
	require.NoError(t, err)
	cancelled, err := env.orders.Place(ctx, customer, PlaceOrderInput{Items: []CartLine{{ProductID: p.ID, Quantity: 2}}})
	require.NoError(t, err)
	_, err = env.orders.UpdateStatus(ctx, staff, cancelled.ID, "cancelled")
	require.NoError(t, err)
	require.Equal(t, 7, env.stock(t, p.ID))

	require.NoError(t, env.orders.Delete(ctx, pending.ID))
	assert.Equal(t, 10, env.stock(t, p.ID))

	require.NoError(t, env.orders.Delete(ctx, cancelled.ID))
	assert.Equal(t, 10, env.stock(t, p.ID), "a cancelled order already returned its stock")

	_, err = env.orders.Get(ctx, staff, pending.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, env.orders.Delete(ctx, pending.ID), store.ErrNotFound)
}

func TestCancelWithoutTransactionsRevertsOnFailure(t *testing.T) {
	base := newTestEnv(t)
	ctx := context.Background()
	a := base.product(t, "A", 1, 10)
	b := base.product(t, "B", 1, 10)
	customer := base.actor(t, model.RoleClient, "ana@example.com")
	staff := base.actor(t, model.RoleAdmin, "admin@example.com")

	order, err := base.orders.Place(ctx, customer, PlaceOrderInput{Items: []CartLine{
		{ProductID: a.ID, Quantity: 1},
		{ProductID: b.ID, Quantity: 1},
	}})
	require.NoError(t, err)

	env := newTestEnvWithStore(t, &storetest.NonAtomic{Store: base.store, FailAdjustAfter: 2})
	_, err = env.orders.UpdateStatus(ctx, staff, order.ID, "cancelled")
	require.Error(t, err)

	stored, err := base.store.Orders().GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
	assert.Equal(t, 9, base.stock(t, a.ID))
	assert.Equal(t, 9, base.stock(t, b.ID))
}

func TestOrderOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.product(t, "Arepa", 3, 10)
	ana := env.actor(t, model.RoleClient, "ana@example.com")
	luis := env.actor(t, model.RoleClient, "luis@example.com")
	staff := env.actor(t, model.RoleEmployee, "emp@example.com")

	order, err := env.orders.Place(ctx, ana, PlaceOrderInput{Items: []CartLine{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)
	_, err = env.orders.Place(ctx, luis, PlaceOrderInput{Items: []CartLine{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)

	_, err = env.orders.Get(ctx, luis, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.orders.Get(ctx, staff, order.ID)
	assert.NoError(t, err)

	own, err := env.orders.List(ctx, ana)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, order.ID, own[0].ID)

	all, err := env.orders.List(ctx, staff)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	nobody := env.actor(t, model.RoleEmployee, "emp2@example.com")
	nobody.Role = model.RoleClient
	none, err := env.orders.List(ctx, nobody)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestQuote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.product(t, "Arepa", 3.5, 2)

	q, err := env.orders.Quote(ctx, []CartLine{
		{ProductID: p.ID, Quantity: 2},
		{ProductID: "missing", Quantity: 1},
	})
	require.NoError(t, err)
	assert.False(t, q.Valid)
	assert.InDelta(t, 7.0, q.Total, 1e-9)

	q, err = env.orders.Quote(ctx, []CartLine{{ProductID: p.ID, Quantity: 3}})
	require.NoError(t, err)
	assert.False(t, q.Valid)
	assert.Equal(t, "only 2 in stock", q.Lines[0].Problem)

	q, err = env.orders.Quote(ctx, []CartLine{{ProductID: p.ID, Quantity: 1}})
	require.NoError(t, err)
	assert.True(t, q.Valid)
	assert.Equal(t, 2, env.stock(t, p.ID))
}

func TestConfirmationMailFailureDoesNotFailOrder(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.err = errors.New("smtp down")
	p := env.product(t, "Arepa", 3, 10)
	customer := env.actor(t, model.RoleClient, "ana@example.com")

	_, err := env.orders.Place(context.Background(), customer, PlaceOrderInput{Items: []CartLine{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)
	assert.Equal(t, 9, env.stock(t, p.ID))
}

package service

import (
	"context"
	"testing"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateClientUserLinksClient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	client := env.actor(t, model.RoleClient, "ana@example.com")
	c, err := env.store.Clients().GetByUserID(ctx, client.UserID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", c.Email)

	staff := env.actor(t, model.RoleEmployee, "emp@example.com")
	_, err = env.store.Clients().GetByUserID(ctx, staff.UserID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = env.users.Create(ctx, CreateUserInput{Name: "X", Email: "x@example.com", Password: "secret123", Role: "chef"})
	assert.ErrorIs(t, err, ErrValidation)

	u, err := env.users.Create(ctx, CreateUserInput{Name: "Legacy", Email: "l@example.com", Password: "secret123", Role: "Empleado"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleEmployee, u.Role)
}

func TestLastSuperuserIsProtected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root, err := env.users.CreateSuperuser(ctx, CreateUserInput{Name: "Root", Email: "root@example.com", Password: "secret123"})
	require.NoError(t, err)
	admin := env.actor(t, model.RoleAdmin, "admin@example.com")

	_, err = env.users.UpdateRole(ctx, root.ID, "admin")
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, env.users.Delete(ctx, admin, root.ID), ErrValidation)

	second := env.actor(t, model.RoleSuperuser, "root2@example.com")
	u, err := env.users.UpdateRole(ctx, root.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)

	assert.ErrorIs(t, env.users.Delete(ctx, second, second.UserID), ErrValidation, "self delete is refused")
}

func TestDeleteUserKeepsClientRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.actor(t, model.RoleAdmin, "admin@example.com")
	customer := env.actor(t, model.RoleClient, "ana@example.com")
	c, err := env.store.Clients().GetByUserID(ctx, customer.UserID)
	require.NoError(t, err)

	require.NoError(t, env.users.Delete(ctx, admin, customer.UserID))

	_, err = env.users.Get(ctx, customer.UserID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	kept, err := env.clients.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.UserID)
}

func TestPromoteToClientCreatesClient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	emp := env.actor(t, model.RoleEmployee, "emp@example.com")
	_, err := env.users.UpdateRole(ctx, emp.UserID, "cliente")
	require.NoError(t, err)

	c, err := env.store.Clients().GetByUserID(ctx, emp.UserID)
	require.NoError(t, err)
	assert.Equal(t, "emp@example.com", c.Email)
}

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestCache connects to REDIS_TEST_ADDR (default localhost:6379) and skips when Redis is down
func setupTestCache(t *testing.T) *Cache {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	prefix := "test:" + model.NewID() + ":"
	c, err := Connect(context.Background(), &config.RedisConfig{Addr: addr, Prefix: prefix, TTL: time.Minute})
	if err != nil {
		t.Skipf("Redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() {
		_ = c.DeletePattern(context.Background(), "*")
		_ = c.Close()
	})
	return c
}

func TestGetSetDelete(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	var p model.Product
	found, err := c.Get(ctx, "products:1", &p)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "products:1", model.Product{ID: "1", Name: "Arepa", Stock: 4}))
	found, err = c.Get(ctx, "products:1", &p)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Arepa", p.Name)

	require.NoError(t, c.Delete(ctx, "products:1"))
	found, err = c.Get(ctx, "products:1", &p)
	require.NoError(t, err)
	assert.False(t, found)

	s := c.Stats()
	assert.EqualValues(t, 1, s.Hits)
	assert.EqualValues(t, 2, s.Misses)
	assert.EqualValues(t, 1, s.Sets)
}

func TestDeletePattern(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "products:list:a", []int{1}))
	require.NoError(t, c.Set(ctx, "products:list:b", []int{2}))
	require.NoError(t, c.Set(ctx, "users:1", "keep"))

	require.NoError(t, c.DeletePattern(ctx, "products:*"))

	var v []int
	found, err := c.Get(ctx, "products:list:a", &v)
	require.NoError(t, err)
	assert.False(t, found)

	var s string
	found, err = c.Get(ctx, "users:1", &s)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestSetWithTTLExpires(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetWithTTL(ctx, "short", 1, 50*time.Millisecond))
	time.Sleep(150 * time.Millisecond)

	var v int
	found, err := c.Get(ctx, "short", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

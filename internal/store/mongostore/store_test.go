package mongostore_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/internal/store/mongostore"
	"github.com/locodavid123/parcial1/internal/store/storetest"
	"github.com/locodavid123/parcial1/pkg/config"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to MONGODB_TEST_URI and skips when it is not set or not reachable
func newTestStore(t *testing.T) store.Store {
	t.Helper()

	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	cfg := &config.MongoConfig{
		URI:      uri,
		Database: "restaurant_test_" + strings.ReplaceAll(model.NewID()[:8], "-", ""),
		Timeout:  3 * time.Second,
	}
	ctx := context.Background()
	s, err := mongostore.Connect(ctx, cfg)
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() {
		_ = s.Drop(context.Background())
		_ = s.Close()
	})
	return s
}

func TestConformance(t *testing.T) {
	storetest.RunConformance(t, newTestStore)
}

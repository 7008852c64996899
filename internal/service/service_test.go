package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/internal/store/storetest"
	"github.com/locodavid123/parcial1/pkg/config"
	"github.com/locodavid123/parcial1/pkg/jwtutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *fakeMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}
	}
	return m.sent[len(m.sent)-1]
}

type testEnv struct {
	store   store.Store
	mailer  *fakeMailer
	jwt     *jwtutil.JWTUtil
	auth    *AuthService
	users   *UserService
	clients *ClientService
	catalog *CatalogService
	orders  *OrderService
	reports *ReportService
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{PublicBaseURL: "http://shop.test/"},
		JWT:    config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1},
		Auth:   config.AuthConfig{ResetTokenTTL: 10 * time.Minute, FaceMatchThreshold: 0.6},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithStore(t, storetest.NewSQLite(t))
}

func newTestEnvWithStore(t *testing.T, s store.Store) *testEnv {
	t.Helper()

	cfg := testConfig()
	mailer := &fakeMailer{}
	jwt := jwtutil.NewJWTUtil(&cfg.JWT)
	auth := NewAuthService(s, jwt, mailer, cfg)
	auth.hashCost = bcrypt.MinCost
	catalog := NewCatalogService(s, nil)

	return &testEnv{
		store:   s,
		mailer:  mailer,
		jwt:     jwt,
		auth:    auth,
		users:   NewUserService(s, auth),
		clients: NewClientService(s),
		catalog: catalog,
		orders:  NewOrderService(s, catalog, mailer),
		reports: NewReportService(s),
	}
}

func (e *testEnv) product(t *testing.T, name string, price float64, stock int) *model.Product {
	t.Helper()
	p := &model.Product{Name: name, Price: price, Stock: stock, MinStock: 1}
	require.NoError(t, e.store.Products().Create(context.Background(), p))
	return p
}

func (e *testEnv) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := e.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (e *testEnv) actor(t *testing.T, role model.Role, email string) Actor {
	t.Helper()
	u, err := e.users.Create(context.Background(), CreateUserInput{
		Name:     "User " + email,
		Email:    email,
		Password: "secret123",
		Phone:    "3001234567",
		Role:     string(role),
	})
	require.NoError(t, err)
	return Actor{UserID: u.ID, Email: u.Email, Role: u.Role}
}

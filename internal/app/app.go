// Package app wires configuration, datastore, cache, services and the HTTP router.
package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/locodavid123/parcial1/internal/handler"
	mid "github.com/locodavid123/parcial1/internal/middleware"
	"github.com/locodavid123/parcial1/internal/service"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/internal/store/couchstore"
	"github.com/locodavid123/parcial1/internal/store/gormstore"
	"github.com/locodavid123/parcial1/internal/store/mongostore"
	"github.com/locodavid123/parcial1/pkg/cache"
	"github.com/locodavid123/parcial1/pkg/config"
	"github.com/locodavid123/parcial1/pkg/database"
	"github.com/locodavid123/parcial1/pkg/jwtutil"
	"github.com/locodavid123/parcial1/pkg/logger"
	"github.com/locodavid123/parcial1/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// App is a running instance of the shop service
type App struct {
	Config *config.Config
	Store  store.Store
	Cache  *cache.Cache
	Echo   *echo.Echo
}

// OpenStore connects to the backend selected by STORE_BACKEND
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	return OpenBackend(ctx, cfg, cfg.Store.Backend)
}

// OpenBackend connects to a named backend using the matching section of cfg
func OpenBackend(ctx context.Context, cfg *config.Config, backend string) (store.Store, error) {
	switch backend {
	case config.BackendPostgres:
		db, err := database.OpenPostgres(&cfg.DB, cfg.Server.Env)
		if err != nil {
			return nil, err
		}
		return gormstore.New(db, config.BackendPostgres), nil
	case config.BackendMongo:
		return mongostore.Connect(ctx, &cfg.Mongo)
	case config.BackendCouchDB:
		return couchstore.Connect(ctx, &cfg.Couch)
	default:
		return nil, fmt.Errorf("unsupported store backend %q", backend)
	}
}

// New connects the datastore and the optional cache and builds the router.
// A Redis outage at start only disables the catalog cache.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.GetLogger()
	prometheus.InitMetrics(cfg.Metrics.Prefix)

	s, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to migrate %s store: %w", s.Name(), err)
	}
	log.Info("Datastore ready", zap.String("backend", s.Name()), zap.Bool("atomic", s.Atomic()))

	a := &App{Config: cfg, Store: s}

	var catalogCache service.Cache
	if cfg.Redis.Enabled() {
		c, err := cache.Connect(ctx, &cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, catalog cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			a.Cache = c
			catalogCache = c
			log.Info("Catalog cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
		}
	}

	a.Echo = NewServer(cfg, s, catalogCache)
	return a, nil
}

// NewServer builds the services and the echo router over an open store. catalogCache may be nil.
func NewServer(cfg *config.Config, s store.Store, catalogCache service.Cache) *echo.Echo {
	jwt := jwtutil.NewJWTUtil(&cfg.JWT)
	mailer := service.NewMailer(&cfg.SMTP)
	auth := service.NewAuthService(s, jwt, mailer, cfg)
	catalog := service.NewCatalogService(s, catalogCache)

	h := handler.New(handler.Services{
		Store:   s,
		Auth:    auth,
		Users:   service.NewUserService(s, auth),
		Clients: service.NewClientService(s),
		Catalog: catalog,
		Orders:  service.NewOrderService(s, catalog, mailer),
		Reports: service.NewReportService(s),
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{cfg.Server.PublicBaseURL},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, mid.RequestIDHeader},
		ExposeHeaders: []string{mid.RequestIDHeader, echo.HeaderContentDisposition},
	}))
	e.Use(mid.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(mid.MetricsMiddleware)

	h.Routes(e, jwt, authRateLimiter(cfg.Auth.RateLimit))
	return e
}

// authRateLimiter limits sign in attempts per client IP. A non-positive rate disables it.
func authRateLimiter(perSecond float64) echo.MiddlewareFunc {
	if perSecond <= 0 {
		return nil
	}
	limiterStore := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     int(math.Ceil(perSecond)),
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: limiterStore,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "unable to identify the caller"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			prometheus.RecordAuthError("rate_limited")
			logger.FromEcho(c).Warn("Auth rate limit exceeded", zap.String("ip", identifier))
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many attempts, try again later"})
		},
	})
}

// Start serves HTTP until Shutdown is called
func (a *App) Start() error {
	addr := ":" + a.Config.Server.Port
	logger.GetLogger().Info("Starting server", zap.String("port", a.Config.Server.Port))
	if err := a.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

// Close releases the cache and datastore connections
func (a *App) Close() error {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			logger.GetLogger().Warn("Failed to close cache", zap.Error(err))
		}
	}
	return a.Store.Close()
}

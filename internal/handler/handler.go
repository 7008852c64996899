// Package handler exposes the shop services over HTTP.
package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/locodavid123/parcial1/internal/middleware"
	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/service"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/pkg/jwtutil"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services are the dependencies of the HTTP handlers
type Services struct {
	Store   store.Store
	Auth    *service.AuthService
	Users   *service.UserService
	Clients *service.ClientService
	Catalog *service.CatalogService
	Orders  *service.OrderService
	Reports *service.ReportService
}

type Handler struct {
	store   store.Store
	auth    *service.AuthService
	users   *service.UserService
	clients *service.ClientService
	catalog *service.CatalogService
	orders  *service.OrderService
	reports *service.ReportService
}

func New(s Services) *Handler {
	return &Handler{
		store:   s.Store,
		auth:    s.Auth,
		users:   s.Users,
		clients: s.Clients,
		catalog: s.Catalog,
		orders:  s.Orders,
		reports: s.Reports,
	}
}

// Routes registers every endpoint. authLimit, when not nil, guards the
// unauthenticated sign in and recovery endpoints.
func (h *Handler) Routes(e *echo.Echo, jwt *jwtutil.JWTUtil, authLimit echo.MiddlewareFunc) {
	authn := middleware.AuthMiddleware(jwt)
	staff := middleware.RequireStaff()
	managers := middleware.RequireRoles(model.RoleSuperuser, model.RoleAdmin)
	superuser := middleware.RequireRoles(model.RoleSuperuser)

	var limited []echo.MiddlewareFunc
	if authLimit != nil {
		limited = append(limited, authLimit)
	}

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", h.Health)

	authAPI := e.Group("/api/auth")
	authAPI.POST("/login", h.Login, limited...)
	authAPI.POST("/register", h.Register, limited...)
	authAPI.POST("/face-login", h.FaceLogin, limited...)
	authAPI.POST("/forgot-password", h.ForgotPassword, limited...)
	authAPI.POST("/reset-password", h.ResetPassword, limited...)
	authAPI.GET("/me", h.Me, authn)
	authAPI.POST("/face", h.EnrollFace, authn)

	productAPI := e.Group("/api/products")
	productAPI.GET("", h.ListProducts)
	productAPI.GET("/low-stock", h.LowStockProducts, authn, staff)
	productAPI.GET("/:id", h.GetProduct)
	productAPI.POST("", h.CreateProduct, authn, managers)
	productAPI.PUT("/:id", h.UpdateProduct, authn, managers)
	productAPI.DELETE("/:id", h.DeleteProduct, authn, superuser)

	e.POST("/api/cart/quote", h.QuoteCart)

	orderAPI := e.Group("/api/orders", authn)
	orderAPI.POST("", h.PlaceOrder)
	orderAPI.GET("", h.ListOrders)
	orderAPI.GET("/:id", h.GetOrder)
	orderAPI.PUT("/:id/status", h.UpdateOrderStatus, staff)
	orderAPI.DELETE("/:id", h.DeleteOrder, managers)

	clientAPI := e.Group("/api/clients", authn, staff)
	clientAPI.GET("", h.ListClients)
	clientAPI.GET("/:id", h.GetClient)
	clientAPI.GET("/:id/orders", h.ListClientOrders)
	clientAPI.POST("", h.CreateClient, managers)
	clientAPI.PUT("/:id", h.UpdateClient, managers)
	clientAPI.DELETE("/:id", h.DeleteClient, managers)

	userAPI := e.Group("/api/users", authn, superuser)
	userAPI.GET("", h.ListUsers)
	userAPI.POST("", h.CreateUser)
	userAPI.PUT("/:id/role", h.UpdateUserRole)
	userAPI.DELETE("/:id", h.DeleteUser)

	reportAPI := e.Group("/api/reports", authn, managers)
	reportAPI.GET("/stock.csv", h.StockReport)
	reportAPI.GET("/sales.csv", h.SalesReport)
	reportAPI.GET("/client-purchases.xlsx", h.ClientPurchasesReport)
	reportAPI.GET("/inventory.pdf", h.InventoryReport)
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"message": msg})
}

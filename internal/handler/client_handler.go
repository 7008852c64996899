package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locodavid123/parcial1/internal/service"
	"github.com/locodavid123/parcial1/pkg/logger"
	"go.uber.org/zap"
)

// ClientRequest defines the structure for client creation/update requests
type ClientRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

func (r *ClientRequest) input() service.ClientInput {
	return service.ClientInput{Name: r.Name, Email: r.Email, Phone: r.Phone}
}

// ListClients retrieves every client
func (h *Handler) ListClients(c echo.Context) error {
	clients, err := h.clients.List(c.Request().Context())
	if err != nil {
		return respondError(c, err, "retrieve clients")
	}
	return c.JSON(http.StatusOK, clients)
}

// GetClient retrieves a specific client by ID
func (h *Handler) GetClient(c echo.Context) error {
	client, err := h.clients.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "retrieve client")
	}
	return c.JSON(http.StatusOK, client)
}

// ListClientOrders retrieves the order history of a client
func (h *Handler) ListClientOrders(c echo.Context) error {
	orders, err := h.clients.Orders(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "retrieve client orders")
	}
	return c.JSON(http.StatusOK, orders)
}

// CreateClient creates a client without an account, e.g. a walk-in customer
func (h *Handler) CreateClient(c echo.Context) error {
	log := logger.FromEcho(c)

	var req ClientRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "create client")
	}

	client, err := h.clients.Create(c.Request().Context(), req.input())
	if err != nil {
		return respondError(c, err, "create client")
	}

	log.Info("Client created successfully", zap.String("client_id", client.ID))
	return c.JSON(http.StatusCreated, client)
}

// UpdateClient updates an existing client
func (h *Handler) UpdateClient(c echo.Context) error {
	var req ClientRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "update client")
	}

	client, err := h.clients.Update(c.Request().Context(), c.Param("id"), req.input())
	if err != nil {
		return respondError(c, err, "update client")
	}
	return c.JSON(http.StatusOK, client)
}

// DeleteClient deletes a client that has no orders
func (h *Handler) DeleteClient(c echo.Context) error {
	if err := h.clients.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err, "delete client")
	}
	return message(c, http.StatusOK, "client deleted")
}

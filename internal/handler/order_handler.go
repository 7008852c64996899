package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locodavid123/parcial1/internal/middleware"
	"github.com/locodavid123/parcial1/internal/service"
	"github.com/locodavid123/parcial1/pkg/logger"
	"go.uber.org/zap"
)

type CartItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0,lte=10000"`
}

type QuoteRequest struct {
	Items []CartItem `json:"items" validate:"required,min=1,dive"`
}

// OrderRequest places an order. Staff send client_id or client_info; customers send neither.
type OrderRequest struct {
	ClientID   string         `json:"client_id"`
	ClientInfo *ClientRequest `json:"client_info"`
	Items      []CartItem     `json:"items" validate:"required,min=1,dive"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func cartLines(items []CartItem) []service.CartLine {
	lines := make([]service.CartLine, len(items))
	for i, it := range items {
		lines[i] = service.CartLine{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return lines
}

// QuoteCart prices a cart against the live catalog without reserving stock
func (h *Handler) QuoteCart(c echo.Context) error {
	var req QuoteRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "quote cart")
	}

	quote, err := h.orders.Quote(c.Request().Context(), cartLines(req.Items))
	if err != nil {
		return respondError(c, err, "quote cart")
	}
	return c.JSON(http.StatusOK, quote)
}

func (h *Handler) PlaceOrder(c echo.Context) error {
	log := logger.FromEcho(c)

	var req OrderRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "place order")
	}

	in := service.PlaceOrderInput{ClientID: req.ClientID, Items: cartLines(req.Items)}
	if req.ClientInfo != nil {
		in.ClientInfo = &service.ClientInput{
			Name:  req.ClientInfo.Name,
			Email: req.ClientInfo.Email,
			Phone: req.ClientInfo.Phone,
		}
	}

	order, err := h.orders.Place(c.Request().Context(), middleware.ActorFrom(c), in)
	if err != nil {
		return respondError(c, err, "place order")
	}

	log.Info("Order created successfully",
		zap.String("order_id", order.ID),
		zap.Float64("total", order.Total))
	return c.JSON(http.StatusCreated, order)
}

// ListOrders returns all orders to staff and the caller's own orders to customers
func (h *Handler) ListOrders(c echo.Context) error {
	orders, err := h.orders.List(c.Request().Context(), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, err, "retrieve orders")
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *Handler) GetOrder(c echo.Context) error {
	order, err := h.orders.Get(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return respondError(c, err, "retrieve order")
	}
	return c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus moves an order to a new status; cancelling returns its stock
func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	var req StatusRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "update order status")
	}

	order, err := h.orders.UpdateStatus(c.Request().Context(), middleware.ActorFrom(c), id, req.Status)
	if err != nil {
		return respondError(c, err, "update order status")
	}

	log.Info("Order status updated",
		zap.String("order_id", id),
		zap.String("status", string(order.Status)))
	return c.JSON(http.StatusOK, order)
}

// DeleteOrder removes an order after returning its stock
func (h *Handler) DeleteOrder(c echo.Context) error {
	if err := h.orders.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err, "delete order")
	}
	return message(c, http.StatusOK, "order deleted")
}

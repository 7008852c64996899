package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/locodavid123/parcial1/pkg/logger"
	"go.uber.org/zap"
)

// Health reports whether the datastore answers
func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logger.FromEcho(c).Error("Health check failed",
			zap.String("store", h.store.Name()),
			zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "store": h.store.Name()})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "store": h.store.Name()})
}

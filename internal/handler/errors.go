package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locodavid123/parcial1/internal/service"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/pkg/logger"
	"go.uber.org/zap"
)

// statusOf maps service and store errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidResetToken):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrFaceNotRecognized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrInsufficientStock),
		errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": msg}. Internal errors are logged and hidden from the caller.
func respondError(c echo.Context, err error, action string) error {
	log := logger.FromEcho(c)
	status := statusOf(err)

	if status == http.StatusInternalServerError {
		log.Error("Failed to "+action, zap.Error(err))
		return c.JSON(status, echo.Map{"error": "Failed to " + action})
	}

	log.Warn("Request rejected",
		zap.String("action", action),
		zap.Int("status", status),
		zap.Error(err))
	return c.JSON(status, echo.Map{"error": err.Error()})
}

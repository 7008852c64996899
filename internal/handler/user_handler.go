package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locodavid123/parcial1/internal/middleware"
	"github.com/locodavid123/parcial1/internal/service"
	"github.com/locodavid123/parcial1/pkg/logger"
	"go.uber.org/zap"
)

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone"`
	Role     string `json:"role" validate:"required"`
}

type RoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return respondError(c, err, "retrieve users")
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "create user")
	}

	user, err := h.users.Create(c.Request().Context(), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Role:     req.Role,
	})
	if err != nil {
		return respondError(c, err, "create user")
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *Handler) UpdateUserRole(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	var req RoleRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "update user role")
	}

	user, err := h.users.UpdateRole(c.Request().Context(), id, req.Role)
	if err != nil {
		return respondError(c, err, "update user role")
	}

	log.Info("User role updated",
		zap.String("target_user_id", id),
		zap.String("role", string(user.Role)))
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	if err := h.users.Delete(c.Request().Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		return respondError(c, err, "delete user")
	}
	return message(c, http.StatusOK, "user deleted")
}

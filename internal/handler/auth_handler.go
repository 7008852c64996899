package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locodavid123/parcial1/internal/middleware"
	"github.com/locodavid123/parcial1/internal/service"
	"github.com/locodavid123/parcial1/pkg/logger"
	"go.uber.org/zap"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone"`
}

// FaceLoginRequest carries a descriptor computed by the browser. Email is optional.
type FaceLoginRequest struct {
	Email      string    `json:"email" validate:"omitempty,email"`
	Descriptor []float64 `json:"descriptor" validate:"required"`
}

type FaceEnrollRequest struct {
	Descriptor []float64 `json:"descriptor" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// Login handles email and password sign in
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "sign in")
	}

	session, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err, "sign in")
	}

	logger.FromEcho(c).Info("User signed in", zap.String("user_id", session.User.ID))
	return c.JSON(http.StatusOK, session)
}

// Register handles customer sign up
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "register")
	}

	session, err := h.auth.Register(c.Request().Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		return respondError(c, err, "register")
	}
	return c.JSON(http.StatusCreated, session)
}

func (h *Handler) FaceLogin(c echo.Context) error {
	var req FaceLoginRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "sign in with face")
	}

	session, err := h.auth.FaceLogin(c.Request().Context(), req.Email, req.Descriptor)
	if err != nil {
		return respondError(c, err, "sign in with face")
	}
	return c.JSON(http.StatusOK, session)
}

// EnrollFace stores a face descriptor for the caller
func (h *Handler) EnrollFace(c echo.Context) error {
	var req FaceEnrollRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "enroll face")
	}

	if err := h.auth.EnrollFace(c.Request().Context(), middleware.ActorFrom(c), req.Descriptor); err != nil {
		return respondError(c, err, "enroll face")
	}
	return message(c, http.StatusOK, "face enrolled")
}

// ForgotPassword always answers the same way whether or not the email exists
func (h *Handler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "request password reset")
	}

	if err := h.auth.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return respondError(c, err, "request password reset")
	}
	return message(c, http.StatusOK, "if the email is registered, a reset link has been sent")
}

func (h *Handler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "reset password")
	}

	if err := h.auth.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return respondError(c, err, "reset password")
	}
	return message(c, http.StatusOK, "password updated")
}

// Me returns the profile of the caller
func (h *Handler) Me(c echo.Context) error {
	profile, err := h.auth.Me(c.Request().Context(), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, err, "load profile")
	}
	return c.JSON(http.StatusOK, profile)
}

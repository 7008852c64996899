package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/service"
	"github.com/locodavid123/parcial1/pkg/jwtutil"
	"github.com/locodavid123/parcial1/pkg/logger"
	"github.com/locodavid123/parcial1/prometheus"
	"go.uber.org/zap"
)

const actorKey = "actor"

// AuthMiddleware validates the bearer token and stores the caller in the context
func AuthMiddleware(jwt *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing Authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				log.Warn("Invalid Authorization header format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			claims, err := jwt.ValidateToken(parts[1])
			if err != nil {
				prometheus.RecordAuthError("invalid_token")
				log.Warn("Invalid JWT token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			role, err := model.ParseRole(claims.Role)
			if err != nil {
				log.Warn("Token carries an unknown role", zap.String("role", claims.Role))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			actor := service.Actor{UserID: claims.UserID, Email: claims.Email, Role: role}
			c.Set(actorKey, actor)
			userLog := log.With(zap.String("user_id", actor.UserID))
			logger.Bind(c, userLog)
			return next(c)
		}
	}
}

// ActorFrom returns the authenticated caller, or the zero Actor on public routes
func ActorFrom(c echo.Context) service.Actor {
	actor, _ := c.Get(actorKey).(service.Actor)
	return actor
}

// RequireRoles rejects callers whose role is not listed. It must run after AuthMiddleware.
func RequireRoles(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := ActorFrom(c)
			if !actor.IsSet() {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			for _, r := range roles {
				if actor.Role == r {
					return next(c)
				}
			}
			logger.FromEcho(c).Warn("Role not allowed",
				zap.String("role", string(actor.Role)),
				zap.String("path", c.Path()))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not have permission to perform this action"})
		}
	}
}

// RequireStaff allows superusers, admins and employees
func RequireStaff() echo.MiddlewareFunc {
	return RequireRoles(model.RoleSuperuser, model.RoleAdmin, model.RoleEmployee)
}

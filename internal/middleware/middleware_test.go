package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/service"
	"github.com/locodavid123/parcial1/pkg/config"
	"github.com/locodavid123/parcial1/pkg/jwtutil"
	"github.com/locodavid123/parcial1/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger.SetLogger(zap.New(core))
	t.Cleanup(func() { logger.SetLogger(nil) })

	e := echo.New()
	e.Use(RequestIDMiddleware)
	e.GET("/", func(c echo.Context) error {
		logger.FromContext(c.Request().Context()).Info("from service")
		return c.String(http.StatusOK, c.Get("request_id").(string))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", rec.Body.String())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "abc-123", logs.All()[0].ContextMap()["request_id"])

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36, "a uuid is generated")
}

func newAuthEcho(t *testing.T) (*echo.Echo, *jwtutil.JWTUtil) {
	t.Helper()
	jwt := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "middleware-key", ExpirationHours: 1})

	e := echo.New()
	e.Use(RequestIDMiddleware)
	api := e.Group("/api", AuthMiddleware(jwt))
	api.GET("/me", func(c echo.Context) error {
		actor := ActorFrom(c)
		return c.JSON(http.StatusOK, echo.Map{"user_id": actor.UserID, "role": actor.Role})
	})
	api.GET("/staff", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, RequireStaff())
	api.GET("/root", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, RequireRoles(model.RoleSuperuser))
	return e, jwt
}

func get(e *echo.Echo, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	e, jwt := newAuthEcho(t)

	assert.Equal(t, http.StatusUnauthorized, get(e, "/api/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(e, "/api/me", "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, get(e, "/api/me", "Bearer not-a-jwt").Code)

	other := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "other-key", ExpirationHours: 1})
	forged, err := other.GenerateToken("u1", "a@b.co", "admin")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(e, "/api/me", "Bearer "+forged).Code)

	unknownRole, err := jwt.GenerateToken("u1", "a@b.co", "chef")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(e, "/api/me", "Bearer "+unknownRole).Code)

	legacy, err := jwt.GenerateToken("u1", "a@b.co", "Administrador")
	require.NoError(t, err)
	rec := get(e, "/api/me", "bearer "+legacy)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":"u1","role":"admin"}`, rec.Body.String())
}

func TestRequireRoles(t *testing.T) {
	e, jwt := newAuthEcho(t)

	token := func(role model.Role) string {
		tok, err := jwt.GenerateToken("u-"+string(role), "x@y.co", string(role))
		require.NoError(t, err)
		return "Bearer " + tok
	}

	assert.Equal(t, http.StatusForbidden, get(e, "/api/staff", token(model.RoleClient)).Code)
	assert.Equal(t, http.StatusNoContent, get(e, "/api/staff", token(model.RoleEmployee)).Code)
	assert.Equal(t, http.StatusForbidden, get(e, "/api/root", token(model.RoleAdmin)).Code)
	assert.Equal(t, http.StatusNoContent, get(e, "/api/root", token(model.RoleSuperuser)).Code)
}

func TestRequireRolesWithoutAuth(t *testing.T) {
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, RequireStaff())

	assert.Equal(t, http.StatusUnauthorized, get(e, "/", "").Code)
	assert.Equal(t, service.Actor{}, ActorFrom(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())))
}

package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBindSharesLoggerWithRequestContext(t *testing.T) {
	SetLogger(zap.NewExample())
	t.Cleanup(func() { SetLogger(nil) })

	core, logs := observer.New(zap.InfoLevel)
	requestLog := zap.New(core).With(zap.String("request_id", "abc"))

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	assert.Same(t, GetLogger(), FromEcho(c))
	Bind(c, requestLog)
	assert.Same(t, requestLog, FromEcho(c))

	FromContext(c.Request().Context()).Info("from service")
	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "abc", entries[0].ContextMap()["request_id"])
	}
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	global := zap.NewExample()
	SetLogger(global)
	t.Cleanup(func() { SetLogger(nil) })

	assert.Same(t, global, FromContext(context.Background()))
	assert.Same(t, global, FromContext(context.WithValue(context.Background(), ctxKey{}, "not a logger")))
}

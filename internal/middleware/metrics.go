package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/locodavid123/parcial1/prometheus"
)

// MetricsMiddleware records count and duration of every request by route
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		// errors are rendered here so the recorded status is the one sent
		if err := next(c); err != nil {
			c.Error(err)
		}

		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		prometheus.ObserveHTTPRequest(c.Request().Method, path, c.Response().Status, time.Since(start))
		return nil
	}
}

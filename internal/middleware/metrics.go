package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ogboNoble001/brightnal-backend/prometheus"
)

// MetricsMiddleware adds prometheus metrics to track HTTP requests
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)

		duration := time.Since(start).Seconds()
		method := c.Request().Method
		path := c.Path()
		status := strconv.Itoa(c.Response().Status)

		prometheus.RecordHTTPRequest(method, path, status, duration)

		return err
	}
}

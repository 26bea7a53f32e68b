package http

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const headerRequestID = "X-Request-Id"

// RequestIDMiddleware ensures every request carries an X-Request-Id,
// honoring one supplied by the caller.
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(headerRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(headerRequestID, id)
			c.Set("request_id", id)
			return next(c)
		}
	}
}

// LoggingMiddleware logs one structured line per request.
func LoggingMiddleware(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			attrs := []any{
				"request_id", c.Get("request_id"),
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"latency_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				attrs = append(attrs, "error", err)
			}
			logger.Info("request", attrs...)
			return err
		}
	}
}

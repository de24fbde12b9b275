package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-Id"

// RequestLogMiddleware tags every request with an ID and writes a structured
// access log line on completion. Client-supplied request IDs are kept so a
// dashboard session can be correlated across refetch cycles.
func RequestLogMiddleware(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Response().Header().Set(requestIDHeader, reqID)

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			entry := logger.WithFields(log.Fields{
				"request_id": reqID,
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"status":     c.Response().Status,
				"elapsed_ms": durationToMillis(time.Since(start)),
			})
			if err != nil {
				entry.WithError(err).Error("request failed")
			} else {
				entry.Debug("request completed")
			}
			return err
		}
	}
}

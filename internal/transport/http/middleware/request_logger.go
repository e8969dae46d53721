// Package middleware contains HTTP middlewares for delivery.
package middleware

import (
	"time"

	"group-task-tracker/internal/entities"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger writes one access line per request. Server errors are logged
// at error level and client errors at warn level.
func RequestLogger(log *zap.SugaredLogger) fiber.Handler {
	access := log.Named("access")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		fields := []interface{}{
			"method", c.Method(),
			"path", c.OriginalURL(),
			"route", c.Route().Path,
			"status", status,
			"duration_ms", float64(elapsed.Microseconds()) / 1000.0,
			"request_id", requestID(c),
		}
		if caller, ok := c.Locals(callerKey).(entities.Caller); ok {
			fields = append(fields, "user_id", caller.UserID)
		}
		if err != nil {
			fields = append(fields, "error", err)
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			access.Errorw("request failed", fields...)
		case status >= fiber.StatusBadRequest:
			access.Warnw("request rejected", fields...)
		default:
			access.Infow("request served", fields...)
		}
		return err
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}

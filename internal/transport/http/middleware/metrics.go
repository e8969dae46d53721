package middleware

import (
	"errors"
	"time"

	"group-task-tracker/internal/monitoring"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// HTTPObserver receives per-request latency.
type HTTPObserver interface {
	ObserveHTTPRequest(method, route string, status int, elapsed time.Duration)
}

// Metrics records request latency in the observer and the performance buffer.
// Routes are reported by their pattern so path parameters do not explode label
// cardinality.
func Metrics(obs HTTPObserver, perf *monitoring.PerfBuffer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		// samples outlive the request; the method may alias its buffer
		method := utils.CopyString(c.Method())
		route := c.Route().Path
		if route == "" || route == "/" {
			route = "unmatched"
		}

		if obs != nil {
			obs.ObserveHTTPRequest(method, route, status, elapsed)
		}
		if perf != nil {
			perf.Record(monitoring.Sample{
				Method:     method,
				Route:      route,
				Status:     status,
				DurationMs: float64(elapsed.Microseconds()) / 1000.0,
				At:         start.UTC(),
			})
		}
		return err
	}
}

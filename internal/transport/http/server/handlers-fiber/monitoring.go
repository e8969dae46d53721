package handlers_fiber

import (
	"net/http"

	"group-task-tracker/internal/monitoring"

	"github.com/gofiber/fiber/v2"
)

// GetPerformance returns the request latency summary of recent requests.
func (h *Handler) GetPerformance(c *fiber.Ctx) error {
	if h.perf == nil {
		return c.Status(http.StatusOK).JSON(monitoring.NewPerfBuffer(0).Summary())
	}
	return c.Status(http.StatusOK).JSON(h.perf.Summary())
}

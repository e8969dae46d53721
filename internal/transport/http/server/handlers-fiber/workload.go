package handlers_fiber

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"group-task-tracker/internal/entities"
	"group-task-tracker/internal/mapper"
	"group-task-tracker/internal/transport/http/dto"

	"github.com/gofiber/fiber/v2"
)

// GetGroupWorkload returns workload metrics of a group for a difficulty range.
func (h *Handler) GetGroupWorkload(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.writeError(c, err)
	}
	rng, err := entities.ParseDifficultyRange(c.Query("range"))
	if err != nil {
		return h.writeError(c, err)
	}

	metrics, err := h.uc.GroupWorkload(c.Context(), caller, c.Params("groupId"), rng)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToWorkload(metrics))
}

// GetWorkloadPreview returns current metrics and metrics with one more task
// assigned to assignedTo.
func (h *Handler) GetWorkloadPreview(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.writeError(c, err)
	}
	difficulty, err := strconv.Atoi(strings.TrimSpace(c.Query("difficulty")))
	if err != nil {
		return h.writeError(c, fmt.Errorf("%w: difficulty must be an integer", entities.ErrInvalidDifficulty))
	}

	res, err := h.uc.WorkloadPreview(c.Context(), caller, entities.HypotheticalAssignment{
		GroupID:    strings.TrimSpace(c.Query("groupId")),
		AssignedTo: strings.TrimSpace(c.Query("assignedTo")),
		Difficulty: difficulty,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(dto.WorkloadPreview{
		Current: mapper.ToWorkload(res.Current),
		Preview: mapper.ToWorkload(res.Preview),
	})
}

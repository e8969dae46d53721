package handlers_fiber

import (
	"net/http"
	"strings"

	"group-task-tracker/internal/entities"
	"group-task-tracker/internal/mapper"
	"group-task-tracker/internal/transport/http/dto"

	"github.com/gofiber/fiber/v2"
)

// PostGroupTask creates a task in the group.
func (h *Handler) PostGroupTask(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.writeError(c, err)
	}
	var body dto.CreateTaskRequest
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c)
	}
	task, err := mapper.FromCreateTask(c.Params("groupId"), body)
	if err != nil {
		return h.writeError(c, err)
	}

	created, err := h.uc.CreateTask(c.Context(), caller, task)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(mapper.ToTask(*created))
}

// GetGroupTasks lists group tasks. Supported filters: status (comma separated),
// assignedUserId, dueFrom and dueTo.
func (h *Handler) GetGroupTasks(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.writeError(c, err)
	}

	filter := entities.TaskFilter{AssignedUserID: strings.TrimSpace(c.Query("assignedUserId"))}
	for _, s := range strings.Split(c.Query("status"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			filter.Statuses = append(filter.Statuses, entities.TaskStatus(s))
		}
	}
	if v := c.Query("dueFrom"); v != "" {
		from, err := mapper.ParseTime("dueFrom", v)
		if err != nil {
			return h.writeError(c, err)
		}
		filter.DueFrom = &from
	}
	if v := c.Query("dueTo"); v != "" {
		to, err := mapper.ParseTime("dueTo", v)
		if err != nil {
			return h.writeError(c, err)
		}
		filter.DueTo = &to
	}

	tasks, err := h.uc.ListTasks(c.Context(), caller, c.Params("groupId"), filter)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToTasks(tasks))
}

// PostTaskStatus moves a task through the approval workflow.
func (h *Handler) PostTaskStatus(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.writeError(c, err)
	}
	var body dto.UpdateTaskStatusRequest
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c)
	}

	task, err := h.uc.UpdateTaskStatus(c.Context(), caller, c.Params("taskId"), entities.TaskStatus(strings.TrimSpace(body.Status)))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToTask(*task))
}

// GetTaskHistory returns the audit trail of a task, newest first.
func (h *Handler) GetTaskHistory(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.writeError(c, err)
	}

	history, err := h.uc.TaskHistory(c.Context(), caller, c.Params("taskId"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToHistory(history))
}

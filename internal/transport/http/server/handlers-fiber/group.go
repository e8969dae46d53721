package handlers_fiber

import (
	"net/http"

	"group-task-tracker/internal/mapper"
	"group-task-tracker/internal/transport/http/dto"

	"github.com/gofiber/fiber/v2"
)

// PostGroup creates a group owned by the caller.
func (h *Handler) PostGroup(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.writeError(c, err)
	}
	var body dto.CreateGroupRequest
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c)
	}

	group, err := h.uc.CreateGroup(c.Context(), caller, body.Name)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(mapper.ToGroup(*group))
}

// GetGroupMembers lists group members.
func (h *Handler) GetGroupMembers(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.writeError(c, err)
	}

	members, err := h.uc.ListMembers(c.Context(), caller, c.Params("groupId"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToMembers(members))
}

// PostGroupMember adds a member to the group.
func (h *Handler) PostGroupMember(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.writeError(c, err)
	}
	var body dto.AddMemberRequest
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c)
	}

	member, err := h.uc.AddMember(c.Context(), caller, mapper.FromAddMember(c.Params("groupId"), body))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(mapper.ToMember(*member))
}

package handlers_fiber

import (
	"bytes"
	"net/http"

	"group-task-tracker/internal/entities"
	"group-task-tracker/internal/mapper"
	"group-task-tracker/internal/transport/http/dto"

	"github.com/gofiber/fiber/v2"
)

// PostDistributionGenerate creates a distribution preview. It answers 200 when
// the preview already reached a terminal status and 202 while it is processing.
func (h *Handler) PostDistributionGenerate(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.writeError(c, err)
	}
	var body dto.GenerateRequest
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(c)
	}
	req, err := mapper.FromGenerate(body)
	if err != nil {
		return h.writeError(c, err)
	}

	preview, err := h.uc.GenerateDistribution(c.Context(), caller, req)
	if err != nil {
		return h.writeError(c, err)
	}

	status := http.StatusOK
	if !preview.Status.Terminal() {
		status = http.StatusAccepted
	}
	return c.Status(status).JSON(dto.GenerateResponse{PreviewID: preview.ID, Status: string(preview.Status)})
}

// GetDistributionPreview returns a preview for polling.
func (h *Handler) GetDistributionPreview(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.writeError(c, err)
	}

	preview, err := h.uc.GetPreview(c.Context(), caller, c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToPreview(*preview))
}

// PostDistributionApply applies a completed preview with optional overrides.
func (h *Handler) PostDistributionApply(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return h.writeError(c, err)
	}
	mods, err := applyModifications(c)
	if err != nil {
		return invalidBody(c)
	}
	res, err := h.uc.ApplyDistribution(c.Context(), caller, c.Params("id"), mods)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(mapper.ToApplyResult(*res))
}

// applyModifications reads the optional apply body. Both a bare list of
// modifications and {"modifications": [...]} are accepted.
func applyModifications(c *fiber.Ctx) ([]entities.Modification, error) {
	raw := bytes.TrimSpace(c.Body())
	if len(raw) == 0 {
		return nil, nil
	}

	var list []dto.Modification
	if raw[0] == '[' {
		if err := c.BodyParser(&list); err != nil {
			return nil, err
		}
	} else {
		var body dto.ApplyRequest
		if err := c.BodyParser(&body); err != nil {
			return nil, err
		}
		list = body.Modifications
	}

	if len(list) == 0 {
		return nil, nil
	}
	return mapper.FromModifications(list), nil
}

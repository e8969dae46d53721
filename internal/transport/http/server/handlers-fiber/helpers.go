package handlers_fiber

import (
	"errors"
	"net/http"

	"group-task-tracker/internal/entities"
	"group-task-tracker/internal/transport/http/dto"
	"group-task-tracker/internal/transport/http/middleware"

	"github.com/gofiber/fiber/v2"
)

type errorMapping struct {
	target error
	status int
	code   dto.ErrorCode
}

// errorMappings is checked in order; wrapped sentinels must come before the
// ones they wrap.
var errorMappings = []errorMapping{
	{entities.ErrPreviewNotCompleted, http.StatusBadRequest, dto.CodePreviewNotCompleted},
	{entities.ErrDateRangeInvalid, http.StatusBadRequest, dto.CodeDateRangeInvalid},
	{entities.ErrDateRangeTooLarge, http.StatusBadRequest, dto.CodeDateRangeTooLarge},
	{entities.ErrInvalidDifficulty, http.StatusBadRequest, dto.CodeInvalidDifficulty},
	{entities.ErrInvalidArgument, http.StatusBadRequest, dto.CodeInvalidArgument},
	{entities.ErrMethodUnavailable, http.StatusBadRequest, dto.CodeMethodUnavailable},
	{entities.ErrUnauthorized, http.StatusUnauthorized, dto.CodeUnauthorized},
	{entities.ErrForbidden, http.StatusForbidden, dto.CodeForbidden},
	{entities.ErrGroupNotFound, http.StatusNotFound, dto.CodeNotFound},
	{entities.ErrTaskNotFound, http.StatusNotFound, dto.CodeNotFound},
	{entities.ErrPreviewNotFound, http.StatusNotFound, dto.CodeNotFound},
	{entities.ErrMemberNotFound, http.StatusNotFound, dto.CodeNotFound},
	{entities.ErrMemberExists, http.StatusConflict, dto.CodeMemberExists},
	{entities.ErrNoMembers, http.StatusConflict, dto.CodeNoMembers},
	{entities.ErrInvalidOperation, http.StatusConflict, dto.CodeInvalidOperation},
}

func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return c.Status(m.status).JSON(errorResponse(m.code, err.Error()))
		}
	}

	h.log.Errorw("request failed", "error", err, "method", c.Method(), "path", c.Path())
	return c.Status(http.StatusInternalServerError).JSON(errorResponse(dto.CodeInternal, "internal error"))
}

func errorResponse(code dto.ErrorCode, msg string) dto.ErrorResponse {
	return dto.ErrorResponse{Error: dto.ErrorBody{Code: code, Message: msg}}
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).JSON(errorResponse(dto.CodeInvalidArgument, "invalid body"))
}

// caller resolves the authenticated user; handlers bail out with 401 otherwise.
func (h *Handler) caller(c *fiber.Ctx) (entities.Caller, error) {
	return middleware.CallerFrom(c)
}

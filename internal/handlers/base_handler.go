package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/OpenNotes-2025/notes-service/internal/services"
	"github.com/OpenNotes-2025/notes-service/internal/utils"
	"github.com/OpenNotes-2025/notes-service/internal/validator"
)

// ErrorResponse is the JSON error envelope for all handlers
type ErrorResponse struct {
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// BaseHandler carries the helpers shared by all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs a handler entry with the request-scoped logger
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c, h.logger).Info(msg, args...)
}

// parseIDParam parses a numeric path parameter. On failure it writes the
// 400 response and returns 0; callers return immediately on 0.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid " + name + " parameter",
		})
		return 0
	}
	return uint(id)
}

// handleServiceError maps service errors onto HTTP statuses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "Request validation failed",
			Details: verrs,
		})
		return
	}

	var perr *services.PermissionError
	if errors.As(err, &perr) {
		utils.FromContext(c, h.logger).Warn("Permission denied",
			"user_id", perr.UserID,
			"resource", perr.Resource,
			"action", perr.Action,
			"reason", perr.Reason,
		)
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: "You do not have permission to perform this action",
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrNoteNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrDeleteNotConfirmed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "confirmation_required",
			Message: "Pass confirm=true to delete this note",
		})
	case errors.Is(err, services.ErrNoteNotPending),
		errors.Is(err, services.ErrNoteNotApproved),
		errors.Is(err, services.ErrSelfDemotion):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})
	default:
		utils.FromContext(c, h.logger).Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OpenNotes-2025/notes-service/internal/repositories"
	"github.com/OpenNotes-2025/notes-service/internal/services"
	"github.com/OpenNotes-2025/notes-service/internal/utils"
	"github.com/OpenNotes-2025/notes-service/internal/validator"
)

// AdminHandler serves the moderation surface: the review queue,
// notifications and spreadsheet exports
type AdminHandler struct {
	BaseHandler
	reviewService       services.ReviewService
	notificationService services.NotificationService
	exportService       services.ExportService
	validator           *validator.Validator
}

func NewAdminHandler(
	reviewService services.ReviewService,
	notificationService services.NotificationService,
	exportService services.ExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler:         NewBaseHandler(logger),
		reviewService:       reviewService,
		notificationService: notificationService,
		exportService:       exportService,
		validator:           validator,
	}
}

// GetPendingNotes lists the review queue, oldest first
// @Summary Pending review queue
// @Tags admin
// @Produce json
// @Success 200 {object} models.PaginatedResponse
// @Failure 403 {object} ErrorResponse
// @Router /admin/notes/pending [get]
func (h *AdminHandler) GetPendingNotes(c *gin.Context) {
	h.LogRequest(c, "Listing pending notes")

	page, err := h.reviewService.PendingQueue(c.Request.Context(), GetUserIDFromContext(c), parseListNotesParams(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// ApproveNote approves a pending note
// @Summary Approve note
// @Tags admin
// @Produce json
// @Param id path uint true "Note ID"
// @Success 200 {object} services.NoteResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/notes/{id}/approve [post]
func (h *AdminHandler) ApproveNote(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Approving note", "note_id", id)

	note, err := h.reviewService.Approve(c.Request.Context(), id, GetUserIDFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, note)
}

// RejectNote rejects a pending note with a mandatory reason
// @Summary Reject note
// @Tags admin
// @Accept json
// @Produce json
// @Param id path uint true "Note ID"
// @Param rejection body services.RejectNoteRequest true "Rejection reason"
// @Success 200 {object} services.NoteResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/notes/{id}/reject [post]
func (h *AdminHandler) RejectNote(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.RejectNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Rejecting note", "note_id", id)

	note, err := h.reviewService.Reject(c.Request.Context(), id, &req, GetUserIDFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, note)
}

// GetReviewCounts summarizes the moderation workload
// @Summary Review counts
// @Tags admin
// @Produce json
// @Success 200 {object} services.ReviewCountsResponse
// @Failure 403 {object} ErrorResponse
// @Router /admin/notes/counts [get]
func (h *AdminHandler) GetReviewCounts(c *gin.Context) {
	counts, err := h.reviewService.Counts(c.Request.Context(), GetUserIDFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, counts)
}

// ExportNotes streams an XLSX workbook of notes matching the filters
// @Summary Export notes
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param status query string false "Note status"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Router /admin/export [get]
func (h *AdminHandler) ExportNotes(c *gin.Context) {
	h.LogRequest(c, "Exporting notes")

	filters := repositories.NoteFilters{}
	params := parseListNotesParams(c)
	if params.Status != "" {
		status := params.Status
		filters.Status = &status
	}
	if params.Category != "" {
		category := params.Category
		filters.Category = &category
	}
	if params.Department != "" {
		department := params.Department
		filters.Department = &department
	}

	data, err := h.exportService.ExportNotes(c.Request.Context(), GetUserIDFromContext(c), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	fileName := fmt.Sprintf("notes-export-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ListNotifications lists recent admin notifications
// @Summary List notifications
// @Tags admin
// @Produce json
// @Param unread_only query bool false "Only unread notifications"
// @Success 200 {object} models.PaginatedResponse
// @Failure 403 {object} ErrorResponse
// @Router /admin/notifications [get]
func (h *AdminHandler) ListNotifications(c *gin.Context) {
	unreadOnly, _ := strconv.ParseBool(c.Query("unread_only"))

	page := 0
	size := 0
	if parsed, err := strconv.Atoi(c.Query("page")); err == nil {
		page = parsed
	}
	if parsed, err := strconv.Atoi(c.Query("size")); err == nil {
		size = parsed
	}

	notifications, err := h.notificationService.ListRecent(c.Request.Context(), GetUserIDFromContext(c), unreadOnly, page, size)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// GetUnreadNotificationCount returns the unread badge count
// @Summary Count unread notifications
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]int64
// @Failure 403 {object} ErrorResponse
// @Router /admin/notifications/unread-count [get]
func (h *AdminHandler) GetUnreadNotificationCount(c *gin.Context) {
	count, err := h.notificationService.UnreadCount(c.Request.Context(), GetUserIDFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// MarkNotificationRead marks a single notification read
// @Summary Mark notification read
// @Tags admin
// @Param id path uint true "Notification ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/notifications/{id}/read [post]
func (h *AdminHandler) MarkNotificationRead(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), GetUserIDFromContext(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllNotificationsRead clears the unread badge
// @Summary Mark all notifications read
// @Tags admin
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Router /admin/notifications/read-all [post]
func (h *AdminHandler) MarkAllNotificationsRead(c *gin.Context) {
	if err := h.notificationService.MarkAllRead(c.Request.Context(), GetUserIDFromContext(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

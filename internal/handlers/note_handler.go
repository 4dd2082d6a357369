package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/OpenNotes-2025/notes-service/internal/services"
	"github.com/OpenNotes-2025/notes-service/internal/utils"
	"github.com/OpenNotes-2025/notes-service/internal/validator"
)

type NoteHandler struct {
	BaseHandler
	noteService services.NoteService
	validator   *validator.Validator
}

func NewNoteHandler(
	noteService services.NoteService,
	validator *validator.Validator,
	logger utils.Logger,
) *NoteHandler {
	return &NoteHandler{
		BaseHandler: NewBaseHandler(logger),
		noteService: noteService,
		validator:   validator,
	}
}

// ListNotes lists approved notes for browsing
// @Summary List notes
// @Description Lists approved notes with optional filtering and search
// @Tags notes
// @Produce json
// @Param page query int false "Page number" default(0)
// @Param size query int false "Page size" default(12)
// @Param category query string false "Note category"
// @Param department query string false "Department"
// @Param search query string false "Search query"
// @Success 200 {object} models.PaginatedResponse
// @Failure 500 {object} ErrorResponse
// @Router /notes [get]
func (h *NoteHandler) ListNotes(c *gin.Context) {
	params := parseListNotesParams(c)

	page, err := h.noteService.List(c.Request.Context(), params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetNote retrieves a single note
// @Summary Get note
// @Description Retrieves a note by its ID
// @Tags notes
// @Produce json
// @Param id path uint true "Note ID"
// @Success 200 {object} services.NoteResponse
// @Failure 404 {object} ErrorResponse
// @Router /notes/{id} [get]
func (h *NoteHandler) GetNote(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	note, err := h.noteService.GetByID(c.Request.Context(), id, GetUserIDFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, note)
}

// DownloadNote returns a short-lived download URL
// @Summary Download note
// @Description Returns a presigned download URL and counts the download
// @Tags notes
// @Produce json
// @Param id path uint true "Note ID"
// @Success 200 {object} services.DownloadResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /notes/{id}/download [get]
func (h *NoteHandler) DownloadNote(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Downloading note", "note_id", id)

	download, err := h.noteService.Download(c.Request.Context(), id, GetUserIDFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, download)
}

// ListDepartments lists distinct departments across approved notes
// @Summary List departments
// @Tags notes
// @Produce json
// @Success 200 {array} string
// @Router /departments [get]
func (h *NoteHandler) ListDepartments(c *gin.Context) {
	departments, err := h.noteService.Departments(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"departments": departments})
}

// GetMyNotes lists the caller's own uploads in any state
// @Summary My uploads
// @Tags notes
// @Produce json
// @Success 200 {object} models.PaginatedResponse
// @Failure 401 {object} ErrorResponse
// @Router /my/notes [get]
func (h *NoteHandler) GetMyNotes(c *gin.Context) {
	userID := GetUserIDFromContext(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Listing own notes", "user_id", userID)

	page, err := h.noteService.GetMine(c.Request.Context(), userID, parseListNotesParams(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetMyStats returns upload counters for the caller
// @Summary My upload stats
// @Tags notes
// @Produce json
// @Success 200 {object} models.UploaderStats
// @Failure 401 {object} ErrorResponse
// @Router /my/stats [get]
func (h *NoteHandler) GetMyStats(c *gin.Context) {
	userID := GetUserIDFromContext(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	stats, err := h.noteService.UploaderStats(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// UpdateNote edits note metadata
// @Summary Update note
// @Tags notes
// @Accept json
// @Produce json
// @Param id path uint true "Note ID"
// @Param note body services.UpdateNoteRequest true "Note update data"
// @Success 200 {object} services.NoteResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /notes/{id} [put]
func (h *NoteHandler) UpdateNote(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating note", "note_id", id)

	var req services.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := GetUserIDFromContext(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	note, err := h.noteService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, note)
}

// DeleteNote removes a note and its stored file. Admin only, and the
// caller must pass confirm=true.
// @Summary Delete note
// @Tags notes
// @Param id path uint true "Note ID"
// @Param confirm query bool true "Deletion confirmation"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /notes/{id} [delete]
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting note", "note_id", id)

	userID := GetUserIDFromContext(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	confirm, _ := strconv.ParseBool(c.Query("confirm"))

	if err := h.noteService.Delete(c.Request.Context(), id, userID, confirm); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// parseListNotesParams reads the list query parameters shared by the
// browse, own-uploads and pending-queue endpoints
func parseListNotesParams(c *gin.Context) models.ListNotesParams {
	params := models.ListNotesParams{
		Status:     models.NoteStatus(c.Query("status")),
		Category:   models.NoteCategory(c.Query("category")),
		Department: c.Query("department"),
		Search:     c.Query("search"),
		SortBy:     c.Query("sort_by"),
		SortDir:    c.Query("sort_dir"),
	}

	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		params.Page = page
	}
	if size, err := strconv.Atoi(c.Query("size")); err == nil {
		params.Size = size
	}
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		params.Year = &year
	}
	if semester, err := strconv.Atoi(c.Query("semester")); err == nil {
		params.Semester = &semester
	}

	return params
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OpenNotes-2025/notes-service/internal/services"
	"github.com/OpenNotes-2025/notes-service/internal/utils"
	"github.com/OpenNotes-2025/notes-service/internal/validator"
)

type UploadHandler struct {
	BaseHandler
	uploadService services.UploadService
	validator     *validator.Validator
}

func NewUploadHandler(
	uploadService services.UploadService,
	validator *validator.Validator,
	logger utils.Logger,
) *UploadHandler {
	return &UploadHandler{
		BaseHandler:   NewBaseHandler(logger),
		uploadService: uploadService,
		validator:     validator,
	}
}

// UploadNote accepts a multipart upload with metadata fields plus the
// file part named "file"
// @Summary Upload note
// @Description Uploads a note file with metadata; the note starts pending review
// @Tags notes
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param category formData string true "Category"
// @Param subject formData string true "Subject"
// @Param department formData string true "Department"
// @Param file formData file true "Note file"
// @Success 201 {object} services.NoteResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /notes [post]
func (h *UploadHandler) UploadNote(c *gin.Context) {
	var req services.UploadNoteRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "File is required",
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

	h.LogRequest(c, "Uploading note", "user_id", userID, "file_name", fileHeader.Filename, "file_size", fileHeader.Size)

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Failed to read uploaded file",
		})
		return
	}
	defer file.Close()

	uploaded := &services.UploadedFile{
		Reader:      file,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Name:        fileHeader.Filename,
	}

	note, err := h.uploadService.Upload(c.Request.Context(), &req, uploaded, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, note)
}

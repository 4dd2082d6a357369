package validator

import (
	"fmt"
	"strings"

	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// MaxFileSize is the upload size cap in bytes (10 MiB)
const MaxFileSize = 10 << 20

// allowedFileTypes is the MIME allow-list for uploaded note files
var allowedFileTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
}

// IsAllowedFileType reports whether a MIME type may be uploaded
func IsAllowedFileType(contentType string) bool {
	return allowedFileTypes[contentType]
}

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateNoteUpload validates an upload request together with the file
// attributes the request arrived with
func (bv *BusinessValidator) ValidateNoteUpload(req *UploadNoteRequest, fileSize int64, contentType string) ValidationErrors {
	var errors ValidationErrors

	// Basic struct validation
	errors = append(errors, bv.Validate(req)...)

	// Category must normalize to a known value
	category := models.NormalizeCategory(req.Category)
	switch category {
	case models.CategoryStudyMaterial, models.CategoryQuestionPaper, models.CategoryLabManual:
	default:
		errors = append(errors, ValidationError{
			Field:   "category",
			Message: "unknown category",
			Value:   req.Category,
			Rule:    "business_logic",
		})
	}

	// File validations
	errors = append(errors, bv.ValidateFile(fileSize, contentType)...)

	return errors
}

// ValidateFile checks the upload size cap and MIME allow-list
func (bv *BusinessValidator) ValidateFile(fileSize int64, contentType string) ValidationErrors {
	var errors ValidationErrors

	if fileSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   "file",
			Message: "file is required",
			Value:   fileSize,
			Rule:    "business_logic",
		})
	} else if fileSize > MaxFileSize {
		errors = append(errors, ValidationError{
			Field:   "file",
			Message: "file exceeds the 10 MiB limit",
			Value:   fileSize,
			Rule:    "file_size",
		})
	}

	if !IsAllowedFileType(contentType) {
		errors = append(errors, ValidationError{
			Field:   "file",
			Message: "file type is not allowed, upload PDF, Word or plain text",
			Value:   contentType,
			Rule:    "file_type",
		})
	}

	return errors
}

// ValidateNoteUpdate validates a metadata edit
func (bv *BusinessValidator) ValidateNoteUpdate(req *UpdateNoteRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.Category != nil {
		category := models.NormalizeCategory(*req.Category)
		switch category {
		case models.CategoryStudyMaterial, models.CategoryQuestionPaper, models.CategoryLabManual:
		default:
			errors = append(errors, ValidationError{
				Field:   "category",
				Message: "unknown category",
				Value:   *req.Category,
				Rule:    "business_logic",
			})
		}
	}

	return errors
}

// ValidateReject validates a rejection request; the reason is mandatory
func (bv *BusinessValidator) ValidateReject(req *RejectNoteRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if strings.TrimSpace(req.Reason) == "" {
		errors = append(errors, ValidationError{
			Field:   "reason",
			Message: "rejection reason cannot be blank",
			Value:   req.Reason,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateRoleToggle validates a role grant/revoke request
func (bv *BusinessValidator) ValidateRoleToggle(req *RoleToggleRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if !models.IsValidRole(req.Role) {
		errors = append(errors, ValidationError{
			Field:   "role",
			Message: fmt.Sprintf("unknown role %q", req.Role),
			Value:   req.Role,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ParseTags splits a comma separated tag string, trimming whitespace and
// dropping empty entries
func ParseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.TrimSpace(part)
		if tag != "" {
			tags = append(tags, tag)
		}
	}

	if len(tags) == 0 {
		return nil
	}
	return tags
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Title validation (3-200 characters after trimming)
	bv.validate.RegisterValidation("note_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 3 && len(title) <= 200
	})

	// Study year validation (1-4)
	bv.validate.RegisterValidation("study_year", func(fl validator.FieldLevel) bool {
		year := fl.Field().Int()
		return year >= 1 && year <= 4
	})

	// Semester validation (1-8)
	bv.validate.RegisterValidation("study_semester", func(fl validator.FieldLevel) bool {
		semester := fl.Field().Int()
		return semester >= 1 && semester <= 8
	})

	// Role validation
	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.IsValidRole(fl.Field().String())
	})
}

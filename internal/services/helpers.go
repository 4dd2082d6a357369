package services

import (
	"context"
	"encoding/json"
	"math"

	"gorm.io/datatypes"

	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/OpenNotes-2025/notes-service/internal/repositories"
)

// marshalTags serializes a tag slice into the JSON column format.
// A nil slice becomes an empty JSON array, never NULL.
func marshalTags(tags []string) datatypes.JSON {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(data)
}

// DefaultPageSize matches the browse grid of the web client
const DefaultPageSize = 12

// MaxPageSize caps page sizes so a single request cannot scan the table
const MaxPageSize = 100

// normalizePaging clamps page/size to sane values
func normalizePaging(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// toNoteFilters converts list params into repository filters
func toNoteFilters(params models.ListNotesParams) repositories.NoteFilters {
	page, size := normalizePaging(params.Page, params.Size)

	filters := repositories.NoteFilters{
		Limit:     size,
		Offset:    page * size,
		SortBy:    params.SortBy,
		SortOrder: params.SortDir,
	}

	if params.Status != "" {
		status := params.Status
		filters.Status = &status
	}
	if params.Category != "" {
		category := models.NormalizeCategory(string(params.Category))
		filters.Category = &category
	}
	if params.Department != "" {
		department := params.Department
		filters.Department = &department
	}
	filters.Year = params.Year
	filters.Semester = params.Semester

	return filters
}

// newPaginatedResponse builds the shared page envelope
func newPaginatedResponse(content interface{}, total int64, page, size, count int) *models.PaginatedResponse {
	totalPages := 0
	if size > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(size)))
	}

	return &models.PaginatedResponse{
		Content:          content,
		TotalElements:    total,
		TotalPages:       totalPages,
		Size:             size,
		Page:             page,
		First:            page == 0,
		Last:             page >= totalPages-1,
		NumberOfElements: count,
		Empty:            count == 0,
	}
}

// roleChecker centralizes the role lookups services gate on. The
// role-assignment rows are authoritative; the mirror column on users is
// never consulted for authorization.
type roleChecker struct {
	repo repositories.Repository
}

func (rc roleChecker) isAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return rc.repo.Role().Has(ctx, nil, userID, models.RoleAdmin)
}

func (rc roleChecker) canUpload(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	isStaff, err := rc.repo.Role().Has(ctx, nil, userID, models.RoleStaff)
	if err != nil {
		return false, err
	}
	if isStaff {
		return true, nil
	}
	return rc.repo.Role().Has(ctx, nil, userID, models.RoleAdmin)
}

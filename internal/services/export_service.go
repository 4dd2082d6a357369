package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/OpenNotes-2025/notes-service/internal/repositories"
)

// exportBatchSize bounds how many rows a single export pulls
const exportBatchSize = 500

type exportService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
	roles  roleChecker
}

func NewExportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		db:     db,
		logger: logger,
		roles:  roleChecker{repo: repo},
	}
}

// ExportNotes renders the notes matching the filters as an XLSX workbook
func (s *exportService) ExportNotes(ctx context.Context, adminID string, filters repositories.NoteFilters) ([]byte, error) {
	isAdmin, err := s.roles.isAdmin(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("role check failed: %w", err)
	}
	if !isAdmin {
		return nil, NewPermissionError(adminID, 0, "note", "export", "admin role required")
	}

	if filters.Limit <= 0 || filters.Limit > exportBatchSize {
		filters.Limit = exportBatchSize
	}

	notes, total, err := s.repo.Note().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Notes"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []interface{}{
		"ID", "Title", "Category", "Subject", "Department", "Year",
		"Semester", "Status", "Uploaded By", "Downloads", "Created At",
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, note := range notes {
		row := []interface{}{
			note.ID,
			note.Title,
			string(note.Category),
			note.Subject,
			stringOrEmpty(note.Department),
			intOrEmpty(note.Year),
			intOrEmpty(note.Semester),
			string(note.Status),
			note.UploadedBy,
			note.DownloadCount,
			note.CreatedAt.Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.InfoContext(ctx, "Exported notes",
		"admin_id", adminID, "rows", len(notes), "total_matching", total)

	return buf.Bytes(), nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func intOrEmpty(n *int) interface{} {
	if n == nil {
		return ""
	}
	return *n
}

package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/OpenNotes-2025/notes-service/internal/repositories"
)

func TestExportService_ExportNotes(t *testing.T) {
	env := newTestEnv(t)
	svc := env.exportService()
	ctx := context.Background()

	seedTestUser(t, env, "admin-1", models.RoleAdmin)
	seedTestUser(t, env, "staff-1", models.RoleStaff)
	seedTestNote(t, env, "staff-1", models.StatusApproved)
	seedTestNote(t, env, "staff-1", models.StatusPending)

	data, err := svc.ExportNotes(ctx, "admin-1", repositories.NoteFilters{})
	if err != nil {
		t.Fatalf("ExportNotes failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected workbook bytes")
	}

	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer workbook.Close()

	header, err := workbook.GetCellValue("Notes", "A1")
	if err != nil {
		t.Fatalf("failed to read header cell: %v", err)
	}
	if header != "ID" {
		t.Errorf("expected header ID, got %q", header)
	}

	rows, err := workbook.GetRows("Notes")
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("expected header plus 2 data rows, got %d", len(rows))
	}
}

func TestExportService_ExportNotes_StatusFilter(t *testing.T) {
	env := newTestEnv(t)
	svc := env.exportService()
	ctx := context.Background()

	seedTestUser(t, env, "admin-1", models.RoleAdmin)
	seedTestUser(t, env, "staff-1", models.RoleStaff)
	seedTestNote(t, env, "staff-1", models.StatusApproved)
	seedTestNote(t, env, "staff-1", models.StatusPending)

	pending := models.StatusPending
	data, err := svc.ExportNotes(ctx, "admin-1", repositories.NoteFilters{Status: &pending})
	if err != nil {
		t.Fatalf("ExportNotes failed: %v", err)
	}

	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer workbook.Close()

	rows, err := workbook.GetRows("Notes")
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected header plus 1 data row, got %d", len(rows))
	}
}

func TestExportService_ExportNotes_NonAdminDenied(t *testing.T) {
	env := newTestEnv(t)
	svc := env.exportService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)

	if _, err := svc.ExportNotes(ctx, "staff-1", repositories.NoteFilters{}); !IsPermissionError(err) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

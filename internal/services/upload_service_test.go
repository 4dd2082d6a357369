package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/OpenNotes-2025/notes-service/internal/events"
	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/OpenNotes-2025/notes-service/internal/validator"
)

func testUploadRequest() *UploadNoteRequest {
	return &UploadNoteRequest{
		Title:      "Database Systems Unit 1",
		Category:   "study_material",
		Subject:    "Database Systems",
		Department: "CSE",
	}
}

func testUploadFile(content string) *UploadedFile {
	return &UploadedFile{
		Reader:      bytes.NewReader([]byte(content)),
		Size:        int64(len(content)),
		ContentType: "application/pdf",
		Name:        "dbms-unit1.pdf",
	}
}

func TestUploadService_Upload(t *testing.T) {
	env := newTestEnv(t)
	svc := env.uploadService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)

	resp, err := svc.Upload(ctx, testUploadRequest(), testUploadFile("%PDF-1.4 fake"), "staff-1")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if resp.Note.ID == 0 {
		t.Fatal("expected note ID to be assigned")
	}
	if resp.Note.Status != models.StatusPending {
		t.Errorf("expected status pending, got %q", resp.Note.Status)
	}
	if resp.Note.UploadedBy != "staff-1" {
		t.Errorf("expected uploader staff-1, got %q", resp.Note.UploadedBy)
	}
	if !strings.HasPrefix(resp.Note.FilePath, "staff-1/") {
		t.Errorf("expected file path under uploader prefix, got %q", resp.Note.FilePath)
	}
	if !strings.HasSuffix(resp.Note.FilePath, ".pdf") {
		t.Errorf("expected file path to keep the extension, got %q", resp.Note.FilePath)
	}

	if env.storage.Count() != 1 {
		t.Errorf("expected 1 stored blob, got %d", env.storage.Count())
	}
	if _, ok := env.storage.Object(resp.Note.FilePath); !ok {
		t.Errorf("expected blob at %q", resp.Note.FilePath)
	}

	// A review notification is queued for admins
	unread, err := env.repo.Notification().UnreadCount(ctx, nil)
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if unread != 1 {
		t.Errorf("expected 1 unread notification, got %d", unread)
	}

	if findEvent(env.publisher.GetPublishedEvents(), events.EventNoteUploaded) == nil {
		t.Error("expected a note.uploaded event")
	}
}

func TestUploadService_Upload_StudentDenied(t *testing.T) {
	env := newTestEnv(t)
	svc := env.uploadService()
	ctx := context.Background()

	seedTestUser(t, env, "student-1", models.RoleStudent)

	_, err := svc.Upload(ctx, testUploadRequest(), testUploadFile("content"), "student-1")
	if !IsPermissionError(err) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if env.storage.Count() != 0 {
		t.Errorf("expected no stored blobs after denied upload, got %d", env.storage.Count())
	}
}

func TestUploadService_Upload_AdminAllowed(t *testing.T) {
	env := newTestEnv(t)
	svc := env.uploadService()
	ctx := context.Background()

	seedTestUser(t, env, "admin-1", models.RoleAdmin)

	resp, err := svc.Upload(ctx, testUploadRequest(), testUploadFile("content"), "admin-1")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if resp.Note.Status != models.StatusPending {
		t.Errorf("admin uploads still start pending, got %q", resp.Note.Status)
	}
}

func TestUploadService_Upload_ValidationRejected(t *testing.T) {
	env := newTestEnv(t)
	svc := env.uploadService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)

	tests := []struct {
		name string
		req  *UploadNoteRequest
		file *UploadedFile
	}{
		{
			name: "title too short",
			req: &UploadNoteRequest{
				Title:      "ab",
				Category:   "study_material",
				Subject:    "Database Systems",
				Department: "CSE",
			},
			file: testUploadFile("content"),
		},
		{
			name: "disallowed file type",
			req:  testUploadRequest(),
			file: &UploadedFile{
				Reader:      bytes.NewReader([]byte("GIF89a")),
				Size:        6,
				ContentType: "image/gif",
				Name:        "diagram.gif",
			},
		},
		{
			name: "file too large",
			req:  testUploadRequest(),
			file: &UploadedFile{
				Reader:      bytes.NewReader([]byte("x")),
				Size:        validator.MaxFileSize + 1,
				ContentType: "application/pdf",
				Name:        "huge.pdf",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tt.req, tt.file, "staff-1")
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected validation errors, got %v", err)
			}
			if env.storage.Count() != 0 {
				t.Errorf("expected no stored blobs after rejected upload, got %d", env.storage.Count())
			}
		})
	}
}

func TestUploadService_Upload_CompensatesBlobOnInsertFailure(t *testing.T) {
	env := newTestEnv(t)
	svc := env.uploadService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)

	// Force the metadata insert to fail after the blob is stored
	if err := env.db.Migrator().DropTable(&models.Note{}); err != nil {
		t.Fatalf("failed to drop notes table: %v", err)
	}

	_, err := svc.Upload(ctx, testUploadRequest(), testUploadFile("content"), "staff-1")
	if err == nil {
		t.Fatal("expected upload to fail")
	}

	if env.storage.Count() != 0 {
		t.Errorf("expected compensating delete to remove the blob, got %d objects", env.storage.Count())
	}
}

func TestUploadService_Upload_LegacyCategoryLabel(t *testing.T) {
	env := newTestEnv(t)
	svc := env.uploadService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)

	req := testUploadRequest()
	req.Category = "Question Papers"

	resp, err := svc.Upload(ctx, req, testUploadFile("content"), "staff-1")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if resp.Note.Category != models.CategoryQuestionPaper {
		t.Errorf("expected legacy label to map to question_paper, got %q", resp.Note.Category)
	}
}

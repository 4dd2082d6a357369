package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/OpenNotes-2025/notes-service/internal/events"
	"github.com/OpenNotes-2025/notes-service/internal/models"
)

func seedTestBlob(t *testing.T, env *testEnv, key string) {
	t.Helper()

	content := []byte("%PDF-1.4 fake")
	if err := env.storage.Upload(context.Background(), key, bytes.NewReader(content), int64(len(content)), "application/pdf"); err != nil {
		t.Fatalf("failed to seed blob: %v", err)
	}
}

func TestNoteService_List_OnlyApprovedVisible(t *testing.T) {
	env := newTestEnv(t)
	svc := env.noteService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)
	seedTestNote(t, env, "staff-1", models.StatusPending)
	seedTestNote(t, env, "staff-1", models.StatusRejected)
	approved := seedTestNote(t, env, "staff-1", models.StatusApproved)

	page, err := svc.List(ctx, models.ListNotesParams{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if page.TotalElements != 1 {
		t.Errorf("expected 1 visible note, got %d", page.TotalElements)
	}
	notes, ok := page.Content.([]*NoteResponse)
	if !ok {
		t.Fatalf("unexpected content type %T", page.Content)
	}
	if len(notes) != 1 || notes[0].ID != approved.ID {
		t.Errorf("expected only the approved note in the listing")
	}
}

func TestNoteService_List_SearchOnlyFindsApproved(t *testing.T) {
	env := newTestEnv(t)
	svc := env.noteService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)
	approved := seedTestNote(t, env, "staff-1", models.StatusApproved)
	seedTestNote(t, env, "staff-1", models.StatusPending)

	other := &models.Note{
		Title:      "Digital Logic Unit 1",
		Category:   models.CategoryStudyMaterial,
		Subject:    "Digital Logic",
		FilePath:   "staff-1/1700000010.pdf",
		FileType:   "application/pdf",
		FileSize:   4096,
		Status:     models.StatusApproved,
		UploadedBy: "staff-1",
	}
	if err := env.db.Create(other).Error; err != nil {
		t.Fatalf("failed to seed note: %v", err)
	}

	page, err := svc.List(ctx, models.ListNotesParams{Search: "NETWORKS"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if page.TotalElements != 1 {
		t.Errorf("expected 1 match, got %d", page.TotalElements)
	}
	notes, ok := page.Content.([]*NoteResponse)
	if !ok {
		t.Fatalf("unexpected content type %T", page.Content)
	}
	if len(notes) != 1 || notes[0].ID != approved.ID {
		t.Errorf("expected only the approved networks note in the results")
	}
}

func TestNoteService_List_StatusFilterCannotLeakPending(t *testing.T) {
	env := newTestEnv(t)
	svc := env.noteService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)
	seedTestNote(t, env, "staff-1", models.StatusPending)

	// Asking for pending explicitly still returns approved only
	page, err := svc.List(ctx, models.ListNotesParams{Status: models.StatusPending})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.TotalElements != 0 {
		t.Errorf("expected pending notes hidden from browse, got %d", page.TotalElements)
	}
}

func TestNoteService_GetByID_Visibility(t *testing.T) {
	env := newTestEnv(t)
	svc := env.noteService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)
	seedTestUser(t, env, "staff-2", models.RoleStaff)
	seedTestUser(t, env, "admin-1", models.RoleAdmin)
	pending := seedTestNote(t, env, "staff-1", models.StatusPending)

	tests := []struct {
		name    string
		userID  string
		wantErr error
	}{
		{name: "anonymous cannot see pending", userID: "", wantErr: ErrNoteNotFound},
		{name: "other staff cannot see pending", userID: "staff-2", wantErr: ErrNoteNotFound},
		{name: "uploader sees own pending", userID: "staff-1"},
		{name: "admin sees pending", userID: "admin-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GetByID(ctx, pending.ID, tt.userID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetByID failed: %v", err)
			}
			if resp.ID != pending.ID {
				t.Errorf("expected note %d, got %d", pending.ID, resp.ID)
			}
		})
	}
}

func TestNoteService_GetByID_Permissions(t *testing.T) {
	env := newTestEnv(t)
	svc := env.noteService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)
	seedTestUser(t, env, "admin-1", models.RoleAdmin)
	note := seedTestNote(t, env, "staff-1", models.StatusApproved)

	anon, err := svc.GetByID(ctx, note.ID, "")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if anon.CanEdit || anon.CanDelete {
		t.Error("anonymous callers must not get edit or delete rights")
	}

	owner, err := svc.GetByID(ctx, note.ID, "staff-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !owner.CanEdit {
		t.Error("uploader should be able to edit")
	}
	if owner.CanDelete {
		t.Error("uploader should not be able to delete")
	}

	admin, err := svc.GetByID(ctx, note.ID, "admin-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !admin.CanEdit || !admin.CanDelete {
		t.Error("admin should be able to edit and delete")
	}
}

func TestNoteService_Download(t *testing.T) {
	env := newTestEnv(t)
	svc := env.noteService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)
	note := seedTestNote(t, env, "staff-1", models.StatusApproved)
	seedTestBlob(t, env, note.FilePath)

	resp, err := svc.Download(ctx, note.ID, "")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if !strings.Contains(resp.URL, note.FilePath) {
		t.Errorf("expected URL for %q, got %q", note.FilePath, resp.URL)
	}
	if resp.FileType != "application/pdf" {
		t.Errorf("expected file type application/pdf, got %q", resp.FileType)
	}

	// Anonymous downloads count
	var got models.Note
	if err := env.db.First(&got, note.ID).Error; err != nil {
		t.Fatalf("failed to reload note: %v", err)
	}
	if got.DownloadCount != 1 {
		t.Errorf("expected download count 1, got %d", got.DownloadCount)
	}
}

func TestNoteService_Download_PendingHiddenFromOthers(t *testing.T) {
	env := newTestEnv(t)
	svc := env.noteService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)
	note := seedTestNote(t, env, "staff-1", models.StatusPending)
	seedTestBlob(t, env, note.FilePath)

	if _, err := svc.Download(ctx, note.ID, ""); !errors.Is(err, ErrNoteNotApproved) {
		t.Fatalf("expected ErrNoteNotApproved, got %v", err)
	}

	// The uploader can still fetch their own pending upload
	if _, err := svc.Download(ctx, note.ID, "staff-1"); err != nil {
		t.Fatalf("uploader download failed: %v", err)
	}
}

func TestNoteService_Update_OwnerAndAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	svc := env.noteService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)
	seedTestUser(t, env, "staff-2", models.RoleStaff)
	note := seedTestNote(t, env, "staff-1", models.StatusApproved)

	title := "Computer Networks Unit 2 (revised)"
	req := &UpdateNoteRequest{Title: &title}

	if _, err := svc.Update(ctx, note.ID, req, "staff-2"); !IsPermissionError(err) {
		t.Fatalf("expected permission error for non-owner, got %v", err)
	}

	resp, err := svc.Update(ctx, note.ID, req, "staff-1")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if resp.Title != title {
		t.Errorf("expected title %q, got %q", title, resp.Title)
	}
}

func TestNoteService_Delete(t *testing.T) {
	env := newTestEnv(t)
	svc := env.noteService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)
	seedTestUser(t, env, "admin-1", models.RoleAdmin)
	note := seedTestNote(t, env, "staff-1", models.StatusApproved)
	seedTestBlob(t, env, note.FilePath)

	if err := svc.Delete(ctx, note.ID, "staff-1", true); !IsPermissionError(err) {
		t.Fatalf("expected permission error for non-admin, got %v", err)
	}

	if err := svc.Delete(ctx, note.ID, "admin-1", false); !errors.Is(err, ErrDeleteNotConfirmed) {
		t.Fatalf("expected ErrDeleteNotConfirmed, got %v", err)
	}

	if err := svc.Delete(ctx, note.ID, "admin-1", true); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := svc.GetByID(ctx, note.ID, "admin-1"); !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("expected note gone, got %v", err)
	}
	if env.storage.Count() != 0 {
		t.Errorf("expected blob removed, got %d objects", env.storage.Count())
	}

	if findEvent(env.publisher.GetPublishedEvents(), events.EventNoteDeleted) == nil {
		t.Error("expected a note.deleted event")
	}
}

func TestNoteService_Delete_BlobFailureDoesNotFailDelete(t *testing.T) {
	env := newTestEnv(t)
	svc := env.noteService()
	ctx := context.Background()

	seedTestUser(t, env, "admin-1", models.RoleAdmin)
	seedTestUser(t, env, "staff-1", models.RoleStaff)
	note := seedTestNote(t, env, "staff-1", models.StatusApproved)
	seedTestBlob(t, env, note.FilePath)

	env.storage.FailDelete = true

	if err := svc.Delete(ctx, note.ID, "admin-1", true); err != nil {
		t.Fatalf("Delete should succeed despite blob failure: %v", err)
	}

	var count int64
	if err := env.db.Model(&models.Note{}).Where("id = ?", note.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count notes: %v", err)
	}
	if count != 0 {
		t.Error("expected metadata row removed even when blob delete fails")
	}
}

func TestNoteService_GetMine(t *testing.T) {
	env := newTestEnv(t)
	svc := env.noteService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)
	seedTestUser(t, env, "staff-2", models.RoleStaff)
	seedTestNote(t, env, "staff-1", models.StatusPending)
	seedTestNote(t, env, "staff-1", models.StatusApproved)
	seedTestNote(t, env, "staff-2", models.StatusApproved)

	page, err := svc.GetMine(ctx, "staff-1", models.ListNotesParams{})
	if err != nil {
		t.Fatalf("GetMine failed: %v", err)
	}
	if page.TotalElements != 2 {
		t.Errorf("expected 2 own notes in any state, got %d", page.TotalElements)
	}
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/OpenNotes-2025/notes-service/internal/events"
	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/OpenNotes-2025/notes-service/internal/validator"
)

func TestReviewService_Approve(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reviewService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)
	seedTestUser(t, env, "admin-1", models.RoleAdmin)
	note := seedTestNote(t, env, "staff-1", models.StatusPending)

	resp, err := svc.Approve(ctx, note.ID, "admin-1")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	if resp.Status != models.StatusApproved {
		t.Errorf("expected status approved, got %q", resp.Status)
	}
	if resp.ApprovedBy == nil || *resp.ApprovedBy != "admin-1" {
		t.Errorf("expected approved_by admin-1, got %v", resp.ApprovedBy)
	}
	if resp.ApprovedAt == nil {
		t.Error("expected approved_at to be stamped")
	}

	var got models.Note
	if err := env.db.First(&got, note.ID).Error; err != nil {
		t.Fatalf("failed to reload note: %v", err)
	}
	if got.Status != models.StatusApproved {
		t.Errorf("expected persisted status approved, got %q", got.Status)
	}

	if findEvent(env.publisher.GetPublishedEvents(), events.EventNoteApproved) == nil {
		t.Error("expected a note.approved event")
	}
}

func TestReviewService_Approve_NonAdminDenied(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reviewService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)
	note := seedTestNote(t, env, "staff-1", models.StatusPending)

	if _, err := svc.Approve(ctx, note.ID, "staff-1"); !IsPermissionError(err) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestReviewService_Approve_AlreadyReviewed(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reviewService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)
	seedTestUser(t, env, "admin-1", models.RoleAdmin)
	note := seedTestNote(t, env, "staff-1", models.StatusApproved)

	if _, err := svc.Approve(ctx, note.ID, "admin-1"); !errors.Is(err, ErrNoteNotPending) {
		t.Fatalf("expected ErrNoteNotPending, got %v", err)
	}
}

func TestReviewService_Reject(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reviewService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)
	seedTestUser(t, env, "admin-1", models.RoleAdmin)
	note := seedTestNote(t, env, "staff-1", models.StatusPending)
	seedTestBlob(t, env, note.FilePath)

	resp, err := svc.Reject(ctx, note.ID, &RejectNoteRequest{Reason: "Scanned copy is unreadable"}, "admin-1")
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	if resp.Status != models.StatusRejected {
		t.Errorf("expected status rejected, got %q", resp.Status)
	}
	if resp.RejectionReason == nil || *resp.RejectionReason != "Scanned copy is unreadable" {
		t.Errorf("expected rejection reason to be stored, got %v", resp.RejectionReason)
	}

	// The uploader keeps access to the file after a rejection
	if env.storage.Count() != 1 {
		t.Errorf("expected blob retained on reject, got %d objects", env.storage.Count())
	}

	if findEvent(env.publisher.GetPublishedEvents(), events.EventNoteRejected) == nil {
		t.Error("expected a note.rejected event")
	}
}

func TestReviewService_Reject_ReasonRequired(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reviewService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)
	seedTestUser(t, env, "admin-1", models.RoleAdmin)
	note := seedTestNote(t, env, "staff-1", models.StatusPending)

	for _, reason := range []string{"", "   "} {
		_, err := svc.Reject(ctx, note.ID, &RejectNoteRequest{Reason: reason}, "admin-1")
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("expected validation errors for reason %q, got %v", reason, err)
		}
	}

	var got models.Note
	if err := env.db.First(&got, note.ID).Error; err != nil {
		t.Fatalf("failed to reload note: %v", err)
	}
	if got.Status != models.StatusPending {
		t.Errorf("expected note still pending, got %q", got.Status)
	}
}

func TestReviewService_PendingQueue_OldestFirst(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reviewService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)
	seedTestUser(t, env, "admin-1", models.RoleAdmin)

	first := seedTestNote(t, env, "staff-1", models.StatusPending)
	second := seedTestNote(t, env, "staff-1", models.StatusPending)
	seedTestNote(t, env, "staff-1", models.StatusApproved)

	page, err := svc.PendingQueue(ctx, "admin-1", models.ListNotesParams{})
	if err != nil {
		t.Fatalf("PendingQueue failed: %v", err)
	}

	if page.TotalElements != 2 {
		t.Errorf("expected 2 pending notes, got %d", page.TotalElements)
	}
	notes, ok := page.Content.([]*NoteResponse)
	if !ok {
		t.Fatalf("unexpected content type %T", page.Content)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if notes[0].ID != first.ID || notes[1].ID != second.ID {
		t.Error("expected the queue ordered oldest first")
	}
}

func TestReviewService_Counts(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reviewService()
	ctx := context.Background()

	seedTestUser(t, env, "staff-1", models.RoleStaff)
	seedTestUser(t, env, "admin-1", models.RoleAdmin)
	seedTestNote(t, env, "staff-1", models.StatusPending)
	seedTestNote(t, env, "staff-1", models.StatusApproved)
	seedTestNote(t, env, "staff-1", models.StatusApproved)

	counts, err := svc.Counts(ctx, "admin-1")
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts.Counts.Pending != 1 {
		t.Errorf("expected 1 pending, got %d", counts.Counts.Pending)
	}
	if counts.Counts.Approved != 2 {
		t.Errorf("expected 2 approved, got %d", counts.Counts.Approved)
	}
}

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/OpenNotes-2025/notes-service/internal/repositories"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Note{}, &models.RoleAssignment{}, &models.Notification{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func seedUser(t *testing.T, db *gorm.DB, id string, role models.UserRole) *models.User {
	t.Helper()

	user := &models.User{
		ID:       id,
		FullName: "Test User " + id,
		Email:    id + "@example.edu",
		Role:     role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedNote(t *testing.T, db *gorm.DB, uploaderID string, status models.NoteStatus) *models.Note {
	t.Helper()

	note := &models.Note{
		Title:      "Operating Systems Unit 3",
		Category:   models.CategoryStudyMaterial,
		Subject:    "Operating Systems",
		FilePath:   uploaderID + "/1700000000.pdf",
		FileType:   "application/pdf",
		FileSize:   1024,
		Status:     status,
		UploadedBy: uploaderID,
	}
	if err := db.Create(note).Error; err != nil {
		t.Fatalf("failed to seed note: %v", err)
	}
	return note
}

func TestNoteRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotePostgreSQL(db, nil)
	ctx := context.Background()

	seedUser(t, db, "staff-1", models.RoleStaff)

	note := &models.Note{
		Title:      "Data Structures Notes",
		Category:   models.CategoryStudyMaterial,
		Subject:    "Data Structures",
		FilePath:   "staff-1/1700000001.pdf",
		FileType:   "application/pdf",
		FileSize:   2048,
		Status:     models.StatusPending,
		UploadedBy: "staff-1",
	}

	if err := repo.Create(ctx, nil, note); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if note.ID == 0 {
		t.Fatal("expected note ID to be assigned")
	}

	got, err := repo.GetByID(ctx, nil, note.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != note.Title {
		t.Errorf("expected title %q, got %q", note.Title, got.Title)
	}
	if got.Status != models.StatusPending {
		t.Errorf("expected status pending, got %q", got.Status)
	}
}

func TestNoteRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotePostgreSQL(db, nil)
	ctx := context.Background()

	seedUser(t, db, "staff-1", models.RoleStaff)
	seedUser(t, db, "admin-1", models.RoleAdmin)
	note := seedNote(t, db, "staff-1", models.StatusPending)

	adminID := "admin-1"
	now := time.Now()
	change := repositories.StatusChange{
		Status:     models.StatusApproved,
		ApprovedBy: &adminID,
		ApprovedAt: &now,
	}

	if err := repo.UpdateStatus(ctx, nil, note.ID, change); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	got, err := repo.GetByID(ctx, nil, note.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.StatusApproved {
		t.Errorf("expected status approved, got %q", got.Status)
	}
	if got.ApprovedBy == nil || *got.ApprovedBy != adminID {
		t.Errorf("expected approved_by %q, got %v", adminID, got.ApprovedBy)
	}
	if got.ApprovedAt == nil {
		t.Error("expected approved_at to be stamped")
	}
}

func TestNoteRepository_RejectClearsApprovalColumns(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotePostgreSQL(db, nil)
	ctx := context.Background()

	seedUser(t, db, "staff-1", models.RoleStaff)
	note := seedNote(t, db, "staff-1", models.StatusPending)

	reason := "Scanned copy is unreadable"
	change := repositories.StatusChange{
		Status: models.StatusRejected,
		Reason: &reason,
	}

	if err := repo.UpdateStatus(ctx, nil, note.ID, change); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	got, err := repo.GetByID(ctx, nil, note.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.StatusRejected {
		t.Errorf("expected status rejected, got %q", got.Status)
	}
	if got.RejectionReason == nil || *got.RejectionReason != reason {
		t.Errorf("expected rejection reason %q, got %v", reason, got.RejectionReason)
	}
	if got.ApprovedBy != nil || got.ApprovedAt != nil {
		t.Error("expected approval columns to stay empty on reject")
	}
}

func TestNoteRepository_IncrementDownloadCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotePostgreSQL(db, nil)
	ctx := context.Background()

	seedUser(t, db, "staff-1", models.RoleStaff)
	note := seedNote(t, db, "staff-1", models.StatusApproved)

	for i := 0; i < 3; i++ {
		if err := repo.IncrementDownloadCount(ctx, nil, note.ID); err != nil {
			t.Fatalf("IncrementDownloadCount failed: %v", err)
		}
	}

	got, err := repo.GetByID(ctx, nil, note.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.DownloadCount != 3 {
		t.Errorf("expected download count 3, got %d", got.DownloadCount)
	}
}

func TestNoteRepository_IncrementDownloadCount_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotePostgreSQL(db, nil)
	ctx := context.Background()

	err := repo.IncrementDownloadCount(ctx, nil, 9999)
	if err != gorm.ErrRecordNotFound {
		t.Errorf("expected gorm.ErrRecordNotFound, got %v", err)
	}
}

func TestNoteRepository_ListFiltersByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotePostgreSQL(db, nil)
	ctx := context.Background()

	seedUser(t, db, "staff-1", models.RoleStaff)
	seedNote(t, db, "staff-1", models.StatusPending)
	seedNote(t, db, "staff-1", models.StatusApproved)
	seedNote(t, db, "staff-1", models.StatusApproved)

	approved := models.StatusApproved
	notes, total, err := repo.List(ctx, nil, repositories.NoteFilters{
		Status: &approved,
		Limit:  12,
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected total 2, got %d", total)
	}
	if len(notes) != 2 {
		t.Errorf("expected 2 notes, got %d", len(notes))
	}
	for _, note := range notes {
		if note.Status != models.StatusApproved {
			t.Errorf("expected only approved notes, got status %q", note.Status)
		}
	}
}

func TestNoteRepository_ListFiltersConjoin(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotePostgreSQL(db, nil)
	ctx := context.Background()

	seedUser(t, db, "staff-1", models.RoleStaff)

	mkNote := func(title, department string, year int) {
		t.Helper()
		note := &models.Note{
			Title:      title,
			Category:   models.CategoryStudyMaterial,
			Subject:    "Networks",
			Department: &department,
			Year:       &year,
			FilePath:   "staff-1/1700000000.pdf",
			FileType:   "application/pdf",
			FileSize:   1024,
			Status:     models.StatusApproved,
			UploadedBy: "staff-1",
		}
		if err := db.Create(note).Error; err != nil {
			t.Fatalf("failed to seed note: %v", err)
		}
	}

	mkNote("CSE second year", "CSE", 2)
	mkNote("CSE third year", "CSE", 3)
	mkNote("ECE second year", "ECE", 2)

	department := "CSE"
	year := 2
	notes, total, err := repo.List(ctx, nil, repositories.NoteFilters{
		Department: &department,
		Year:       &year,
		Limit:      12,
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if total != 1 {
		t.Errorf("expected both filters to apply, got total %d", total)
	}
	if len(notes) != 1 || notes[0].Title != "CSE second year" {
		t.Errorf("expected only the CSE second-year note, got %d notes", len(notes))
	}
}

func TestNoteRepository_SearchIsCaseInsensitive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotePostgreSQL(db, nil)
	ctx := context.Background()

	seedUser(t, db, "staff-1", models.RoleStaff)
	seedNote(t, db, "staff-1", models.StatusApproved)

	other := &models.Note{
		Title:      "Compiler Design Unit 2",
		Category:   models.CategoryStudyMaterial,
		Subject:    "Compilers",
		FilePath:   "staff-1/1700000002.pdf",
		FileType:   "application/pdf",
		FileSize:   1024,
		Status:     models.StatusApproved,
		UploadedBy: "staff-1",
	}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("failed to seed note: %v", err)
	}

	notes, total, err := repo.Search(ctx, nil, "OPERATING", repositories.NoteFilters{Limit: 12})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if total != 1 {
		t.Errorf("expected 1 match, got %d", total)
	}
	if len(notes) != 1 || notes[0].Title != "Operating Systems Unit 3" {
		t.Errorf("expected the operating systems note, got %d notes", len(notes))
	}
}

func TestNoteRepository_SearchMatchesTags(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotePostgreSQL(db, nil)
	ctx := context.Background()

	seedUser(t, db, "staff-1", models.RoleStaff)

	tagged := &models.Note{
		Title:      "Algorithms Unit 4",
		Category:   models.CategoryStudyMaterial,
		Subject:    "Algorithms",
		Tags:       datatypes.JSON([]byte(`["sorting","graph theory"]`)),
		FilePath:   "staff-1/1700000003.pdf",
		FileType:   "application/pdf",
		FileSize:   1024,
		Status:     models.StatusApproved,
		UploadedBy: "staff-1",
	}
	if err := db.Create(tagged).Error; err != nil {
		t.Fatalf("failed to seed note: %v", err)
	}
	seedNote(t, db, "staff-1", models.StatusApproved)

	notes, total, err := repo.Search(ctx, nil, "graph", repositories.NoteFilters{Limit: 12})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if total != 1 {
		t.Errorf("expected 1 match on tag, got %d", total)
	}
	if len(notes) != 1 || notes[0].ID != tagged.ID {
		t.Errorf("expected the tagged note, got %d notes", len(notes))
	}
}

func TestNoteRepository_SearchConjoinsWithStatusFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotePostgreSQL(db, nil)
	ctx := context.Background()

	seedUser(t, db, "staff-1", models.RoleStaff)
	seedNote(t, db, "staff-1", models.StatusApproved)
	seedNote(t, db, "staff-1", models.StatusPending)

	approved := models.StatusApproved
	notes, total, err := repo.Search(ctx, nil, "operating", repositories.NoteFilters{
		Status: &approved,
		Limit:  12,
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if total != 1 {
		t.Errorf("expected the status filter to apply, got total %d", total)
	}
	for _, note := range notes {
		if note.Status != models.StatusApproved {
			t.Errorf("expected only approved notes, got status %q", note.Status)
		}
	}
}

func TestNoteRepository_ListSortsByApprovedAtDesc(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotePostgreSQL(db, nil)
	ctx := context.Background()

	seedUser(t, db, "staff-1", models.RoleStaff)
	seedUser(t, db, "admin-1", models.RoleAdmin)

	adminID := "admin-1"
	base := time.Now().Add(-time.Hour)
	var wantFirst uint
	for i := 0; i < 3; i++ {
		note := seedNote(t, db, "staff-1", models.StatusPending)
		at := base.Add(time.Duration(i) * time.Minute)
		change := repositories.StatusChange{
			Status:     models.StatusApproved,
			ApprovedBy: &adminID,
			ApprovedAt: &at,
		}
		if err := repo.UpdateStatus(ctx, nil, note.ID, change); err != nil {
			t.Fatalf("UpdateStatus failed: %v", err)
		}
		wantFirst = note.ID
	}

	notes, _, err := repo.List(ctx, nil, repositories.NoteFilters{
		SortBy:    "approved_at",
		SortOrder: "desc",
		Limit:     12,
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(notes) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(notes))
	}
	if notes[0].ID != wantFirst {
		t.Errorf("expected the latest approval first, got note %d", notes[0].ID)
	}
}

func TestNoteRepository_CountByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotePostgreSQL(db, nil)
	ctx := context.Background()

	seedUser(t, db, "staff-1", models.RoleStaff)
	seedNote(t, db, "staff-1", models.StatusPending)
	seedNote(t, db, "staff-1", models.StatusPending)
	seedNote(t, db, "staff-1", models.StatusApproved)
	seedNote(t, db, "staff-1", models.StatusRejected)

	counts, err := repo.CountByStatus(ctx, nil)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts.Total != 4 {
		t.Errorf("expected total 4, got %d", counts.Total)
	}
	if counts.Pending != 2 {
		t.Errorf("expected 2 pending, got %d", counts.Pending)
	}
	if counts.Approved != 1 {
		t.Errorf("expected 1 approved, got %d", counts.Approved)
	}
	if counts.Rejected != 1 {
		t.Errorf("expected 1 rejected, got %d", counts.Rejected)
	}
}

func TestNoteRepository_IsUploader(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotePostgreSQL(db, nil)
	ctx := context.Background()

	seedUser(t, db, "staff-1", models.RoleStaff)
	seedUser(t, db, "staff-2", models.RoleStaff)
	note := seedNote(t, db, "staff-1", models.StatusPending)

	owns, err := repo.IsUploader(ctx, nil, note.ID, "staff-1")
	if err != nil {
		t.Fatalf("IsUploader failed: %v", err)
	}
	if !owns {
		t.Error("expected staff-1 to own the note")
	}

	owns, err = repo.IsUploader(ctx, nil, note.ID, "staff-2")
	if err != nil {
		t.Fatalf("IsUploader failed: %v", err)
	}
	if owns {
		t.Error("expected staff-2 to not own the note")
	}
}

func TestRoleRepository_AddIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRolePostgreSQL(db)
	ctx := context.Background()

	seedUser(t, db, "user-1", models.RoleStudent)

	if err := repo.Add(ctx, nil, "user-1", models.RoleStaff); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := repo.Add(ctx, nil, "user-1", models.RoleStaff); err != nil {
		t.Fatalf("second Add failed: %v", err)
	}

	roles, err := repo.ListByUser(ctx, nil, "user-1")
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(roles) != 1 {
		t.Errorf("expected 1 role after duplicate add, got %d", len(roles))
	}
}

func TestRoleRepository_AddRemoveRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRolePostgreSQL(db)
	ctx := context.Background()

	seedUser(t, db, "user-1", models.RoleStudent)

	if err := repo.Add(ctx, nil, "user-1", models.RoleAdmin); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	has, err := repo.Has(ctx, nil, "user-1", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if !has {
		t.Error("expected user to hold admin role")
	}

	if err := repo.Remove(ctx, nil, "user-1", models.RoleAdmin); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	has, err = repo.Has(ctx, nil, "user-1", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if has {
		t.Error("expected admin role to be removed")
	}
}

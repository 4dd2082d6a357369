package repositories

import (
	"context"

	"github.com/OpenNotes-2025/notes-service/internal/models"
	"gorm.io/gorm"
)

// UserFilters defines filters for user queries
type UserFilters struct {
	Query  string // Search query for name or email
	Limit  int    // Page size
	Offset int    // Offset for pagination
}

// UserRepository stores local profiles. Identity is owned by Casdoor;
// a profile row is upserted the first time a token for that user is seen.
type UserRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)

	// List and search operations
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)

	// Primary-role mirror
	SetPrimaryRole(ctx context.Context, tx *gorm.DB, id string, role models.UserRole) error

	// Validation and checks
	ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error)
}

// RoleRepository manages the authoritative role-assignment relation.
type RoleRepository interface {
	Has(ctx context.Context, tx *gorm.DB, userID string, role models.UserRole) (bool, error)
	Add(ctx context.Context, tx *gorm.DB, userID string, role models.UserRole) error
	Remove(ctx context.Context, tx *gorm.DB, userID string, role models.UserRole) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]models.UserRole, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*models.RoleAssignment, error)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/OpenNotes-2025/notes-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RolePostgreSQL struct {
	db *gorm.DB
}

func NewRolePostgreSQL(db *gorm.DB) repositories.RoleRepository {
	return &RolePostgreSQL{db: db}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (r *RolePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Has checks whether a user holds a role
func (r *RolePostgreSQL) Has(ctx context.Context, tx *gorm.DB, userID string, role models.UserRole) (bool, error) {
	db := r.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.RoleAssignment{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error

	return count > 0, err
}

// Add grants a role. Granting an already-held role is a no-op so the
// toggle endpoint stays idempotent under concurrent requests.
func (r *RolePostgreSQL) Add(ctx context.Context, tx *gorm.DB, userID string, role models.UserRole) error {
	db := r.getDB(tx)

	assignment := &models.RoleAssignment{
		UserID: userID,
		Role:   role,
	}

	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(assignment).Error
	if err != nil {
		return fmt.Errorf("failed to add role: %w", err)
	}

	return nil
}

// Remove revokes a role. Removing a role the user does not hold is a no-op.
func (r *RolePostgreSQL) Remove(ctx context.Context, tx *gorm.DB, userID string, role models.UserRole) error {
	db := r.getDB(tx)

	err := db.WithContext(ctx).
		Where("user_id = ? AND role = ?", userID, role).
		Delete(&models.RoleAssignment{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
	}

	return nil
}

// ListByUser returns the roles a user holds
func (r *RolePostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]models.UserRole, error) {
	db := r.getDB(tx)
	var roles []models.UserRole
	err := db.WithContext(ctx).
		Model(&models.RoleAssignment{}).
		Where("user_id = ?", userID).
		Pluck("role", &roles).Error
	if err != nil {
		return nil, err
	}

	return roles, nil
}

// ListAll returns every role assignment, for the admin role overview
func (r *RolePostgreSQL) ListAll(ctx context.Context, tx *gorm.DB) ([]*models.RoleAssignment, error) {
	db := r.getDB(tx)
	var assignments []*models.RoleAssignment
	err := db.WithContext(ctx).
		Order("user_id ASC, role ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	return assignments, nil
}

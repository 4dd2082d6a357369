package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/OpenNotes-2025/notes-service/internal/cache"
	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/OpenNotes-2025/notes-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.UserRepository {
	return &UserPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (u *UserPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return u.db
}

// Upsert inserts a profile row or refreshes it if the ID already exists.
// The primary-role mirror is deliberately not touched here: role changes
// go through SetPrimaryRole only.
func (u *UserPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, user *models.User) error {
	db := u.getDB(tx)

	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"full_name", "email", "avatar_url", "updated_at"}),
		}).
		Create(user).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	cache.InvalidateUserCache(ctx, u.cacheManager, user.ID)

	return nil
}

// GetByID retrieves a user profile with caching
func (u *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	cacheKey := fmt.Sprintf("id:%s", id)
	var user models.User

	err := u.cacheManager.User.CacheOrExecute(ctx, cacheKey, &user, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		var dbUser models.User
		err := u.getDB(tx).WithContext(ctx).
			Where("id = ?", id).
			First(&dbUser).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		return &dbUser, nil
	})

	if err != nil {
		return nil, err
	}

	return &user, nil
}

// List retrieves user profiles with optional name/email search
func (u *UserPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	query := u.getDB(tx).WithContext(ctx).Model(&models.User{})

	if filters.Query != "" {
		searchQuery := fmt.Sprintf("%%%s%%", strings.ToLower(filters.Query))
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", searchQuery, searchQuery)
	}

	// Count total
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("full_name ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var users []*models.User
	err := query.Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// SetPrimaryRole updates the denormalized role mirror on the profile row
func (u *UserPostgreSQL) SetPrimaryRole(ctx context.Context, tx *gorm.DB, id string, role models.UserRole) error {
	db := u.getDB(tx)

	result := db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("role", role)
	if result.Error != nil {
		return fmt.Errorf("failed to set primary role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateUserCache(ctx, u.cacheManager, id)

	return nil
}

// ExistsByID checks if a profile row exists
func (u *UserPostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	db := u.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Count(&count).Error

	return count > 0, err
}

package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string
type Role = UserRole // Alias for compatibility

const (
	RoleStudent UserRole = "student"
	RoleStaff   UserRole = "staff"
	RoleAdmin   UserRole = "admin"
)

// rolePrivilege orders roles for the primary-role mirror recompute.
var rolePrivilege = map[UserRole]int{
	RoleStudent: 1,
	RoleStaff:   2,
	RoleAdmin:   3,
}

// IsValidRole reports whether raw names one of the known roles.
func IsValidRole(raw string) bool {
	_, ok := rolePrivilege[UserRole(raw)]
	return ok
}

// HighestRole returns the most privileged role in the set, or RoleStudent
// when the set is empty. Used to recompute the denormalized primary-role
// mirror from the authoritative role-assignment rows.
func HighestRole(roles []UserRole) UserRole {
	best := RoleStudent
	for _, r := range roles {
		if rolePrivilege[r] > rolePrivilege[best] {
			best = r
		}
	}
	return best
}

type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role     UserRole `json:"role" gorm:"not null;default:student;size:20"`

	// Profile info
	AvatarURL *string `json:"avatar_url" gorm:"size:500"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// RoleAssignment is the authoritative many-to-many role relation. The
// Role field on User is only a denormalized mirror of these rows.
type RoleAssignment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_user_role"`
	Role      UserRole  `json:"role" gorm:"not null;size:20;uniqueIndex:idx_user_role"`
	CreatedAt time.Time `json:"created_at"`
}

func (RoleAssignment) TableName() string {
	return "user_roles"
}

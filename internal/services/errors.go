package services

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped to HTTP statuses by the handlers
var (
	ErrNoteNotFound         = errors.New("note not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNoteNotPending       = errors.New("note is not pending review")
	ErrNoteNotApproved      = errors.New("note is not approved")
	ErrDeleteNotConfirmed   = errors.New("delete requires explicit confirmation")
	ErrSelfDemotion         = errors.New("admins cannot revoke their own admin role")
)

// PermissionError reports a denied operation with enough context to log
// without leaking internals to the client
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}

// NewPermissionError creates a permission error
func NewPermissionError(userID string, resourceID uint, resource, action, reason string) error {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsPermissionError reports whether err is a permission denial
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// BatchInvalidate invalidates multiple patterns in batch
func BatchInvalidate(ctx context.Context, helper *CacheHelper, patterns []string) error {
	var lastErr error
	for _, pattern := range patterns {
		if err := helper.InvalidatePattern(ctx, pattern); err != nil {
			lastErr = err
			slog.ErrorContext(ctx, "Failed to invalidate pattern in batch",
				"error", err,
				"pattern", pattern)
		}
	}
	return lastErr
}

// InvalidateNoteCache invalidates all note-related caches
func InvalidateNoteCache(ctx context.Context, cm *CacheManager, noteID uint, uploaderID string) {
	// Delete specific keys using single call
	SafeDelete(ctx, cm.Note,
		fmt.Sprintf("id:%d", noteID))

	// Invalidate patterns
	SafeInvalidatePattern(ctx, cm.Note, fmt.Sprintf("uploader:%s:*", uploaderID))
	SafeInvalidatePattern(ctx, cm.Note, "list:*")
	SafeInvalidatePattern(ctx, cm.Note, "departments*")
	SafeInvalidatePattern(ctx, cm.Stats, "counts*")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("uploader:%s*", uploaderID))
}

// InvalidateUserCache invalidates cached profile data for a user
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID string) {
	SafeDelete(ctx, cm.User, fmt.Sprintf("id:%s", userID))
	SafeInvalidatePattern(ctx, cm.User, "list:*")
}

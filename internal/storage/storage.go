// Package storage provides object storage for uploaded note files.
package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStorage abstracts the blob store that holds note files. The
// database row only keeps the storage key; bytes live behind this
// interface.
type ObjectStorage interface {
	// Upload stores an object under the given key
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// DownloadURL returns a presigned GET URL and its expiry
	DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)

	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks whether an object is present
	Exists(ctx context.Context, key string) (bool, error)
}

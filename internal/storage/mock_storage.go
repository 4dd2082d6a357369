package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// Ensure MockObjectStorage implements ObjectStorage
var _ ObjectStorage = (*MockObjectStorage)(nil)

// MockObjectStorage is an in-memory ObjectStorage used by tests
type MockObjectStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// FailUpload makes Upload return an error, for exercising
	// compensation paths
	FailUpload bool
	// FailDelete makes Delete return an error
	FailDelete bool
}

// NewMockObjectStorage creates an empty in-memory storage
func NewMockObjectStorage() *MockObjectStorage {
	return &MockObjectStorage{
		objects: make(map[string][]byte),
	}
}

// Upload stores the object bytes in memory
func (m *MockObjectStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if m.FailUpload {
		return fmt.Errorf("mock upload failure")
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data

	return nil
}

// DownloadURL returns a fake URL for the object
func (m *MockObjectStorage) DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.objects[key]; !ok {
		return "", time.Time{}, fmt.Errorf("object not found: %s", key)
	}

	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}

	return "https://storage.test/" + key, time.Now().Add(expiresIn), nil
}

// Delete removes the object from memory
func (m *MockObjectStorage) Delete(ctx context.Context, key string) error {
	if m.FailDelete {
		return fmt.Errorf("mock delete failure")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)

	return nil
}

// Exists checks whether the object is present
func (m *MockObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.objects[key]
	return ok, nil
}

// Object returns the stored bytes for assertions in tests
func (m *MockObjectStorage) Object(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[key]
	return data, ok
}

// Count returns the number of stored objects
func (m *MockObjectStorage) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.objects)
}

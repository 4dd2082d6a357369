package events

import (
	"context"
	"log/slog"
	"sync"
)

// Ensure MockEventPublisher implements EventPublisher
var _ EventPublisher = (*MockEventPublisher)(nil)

// MockEventPublisher records events in memory for tests
type MockEventPublisher struct {
	mu     sync.RWMutex
	events []*Event
	logger *slog.Logger

	// FailPublish makes Publish return an error
	FailPublish bool
}

// NewMockEventPublisher creates a recording publisher
func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{
		events: make([]*Event, 0),
		logger: logger,
	}
}

// Publish records the event
func (m *MockEventPublisher) Publish(ctx context.Context, event *Event) error {
	if m.FailPublish {
		return ErrPublishFailed
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)

	if m.logger != nil {
		m.logger.DebugContext(ctx, "Mock event published",
			"event_id", event.ID,
			"event_type", event.Type)
	}

	return nil
}

// Close is a no-op
func (m *MockEventPublisher) Close() error {
	return nil
}

// GetPublishedEvents returns a copy of the recorded events
func (m *MockEventPublisher) GetPublishedEvents() []*Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Event, len(m.events))
	copy(out, m.events)
	return out
}

// ClearEvents drops all recorded events
func (m *MockEventPublisher) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = m.events[:0]
}

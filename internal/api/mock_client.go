package api

import (
	"context"
	"sync"

	apierrors "github.com/diogo/streamchat/internal/errors"
)

// MockChannel is a scripted Channel for testing
type MockChannel struct {
	mu      sync.Mutex
	events  chan Event
	closed  bool
	SendErr error

	// Call recorders
	Sent        []string
	CloseCalled int
}

// Ensure MockChannel implements Channel
var _ Channel = (*MockChannel)(nil)

// NewMockChannel creates a mock with room for buffer queued events
func NewMockChannel(buffer int) *MockChannel {
	return &MockChannel{events: make(chan Event, buffer)}
}

func (m *MockChannel) Send(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return apierrors.NewChannelClosedError(nil)
	}
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, text)
	return nil
}

func (m *MockChannel) Events() <-chan Event {
	return m.events
}

func (m *MockChannel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled++
	if !m.closed {
		m.closed = true
		close(m.events)
	}
	return nil
}

// Push queues inbound events as if they arrived from the server. After
// Close it queues nothing and returns a ChannelClosedError.
func (m *MockChannel) Push(events ...Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return apierrors.NewChannelClosedError(nil)
	}
	for _, ev := range events {
		m.events <- ev
	}
	return nil
}

// PushFragments queues one fragment event per text, translating the end
// marker the way the real parser does
func (m *MockChannel) PushFragments(texts ...string) error {
	events := make([]Event, 0, len(texts))
	for _, text := range texts {
		events = append(events, ParseInbound(payloadJSON(text)))
	}
	return m.Push(events...)
}

// LastSent returns the most recent outbound message
func (m *MockChannel) LastSent() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return ""
	}
	return m.Sent[len(m.Sent)-1]
}

package messaging

import (
	"context"
	"fmt"
	"sync"

	"github.com/BTreeMap/WellbeingBot/internal/models"
)

// SentMessage is an outbound message recorded by MockService.
type SentMessage struct {
	Ref      models.MessageRef
	Text     string
	Keyboard *models.Keyboard
}

// AnsweredCallback is a callback answer recorded by MockService.
type AnsweredCallback struct {
	CallbackID string
	Text       string
}

// MockService is an in-process Service for tests and local runs. Inbound events
// are injected with Deliver.
type MockService struct {
	mu       sync.Mutex
	sent     []SentMessage
	edits    []SentMessage
	answers  []AnsweredCallback
	events   chan models.Event
	stopped  bool
	seq      int
	SendErr  error
	Notifier chan SentMessage
}

// NewMockService returns a MockService with a buffered event channel.
func NewMockService() *MockService {
	return &MockService{events: make(chan models.Event, DefaultChannelBufferSize)}
}

func (m *MockService) SendMessage(ctx context.Context, userID int64, text string, kb *models.Keyboard) (models.MessageRef, error) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return models.MessageRef{}, ErrServiceStopped
	}
	if m.SendErr != nil {
		err := m.SendErr
		m.mu.Unlock()
		return models.MessageRef{}, err
	}
	m.seq++
	msg := SentMessage{Ref: models.MessageRef{UserID: userID, MessageID: fmt.Sprintf("m%d", m.seq)}, Text: text, Keyboard: kb}
	m.sent = append(m.sent, msg)
	notify := m.Notifier
	m.mu.Unlock()

	if notify != nil {
		notify <- msg
	}
	return msg.Ref, nil
}

func (m *MockService) EditMessage(ctx context.Context, ref models.MessageRef, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return ErrServiceStopped
	}
	m.edits = append(m.edits, SentMessage{Ref: ref, Text: text})
	return nil
}

func (m *MockService) AnswerCallback(ctx context.Context, callbackID string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, AnsweredCallback{CallbackID: callbackID, Text: text})
	return nil
}

func (m *MockService) Start(ctx context.Context) error { return nil }

func (m *MockService) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.stopped {
		m.stopped = true
		close(m.events)
	}
	return nil
}

func (m *MockService) Events() <-chan models.Event { return m.events }

// Deliver pushes an inbound event as if a user had sent it.
func (m *MockService) Deliver(evt models.Event) {
	m.events <- evt
}

// Sent returns a copy of the sent messages.
func (m *MockService) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}

// Edits returns a copy of the edited messages.
func (m *MockService) Edits() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.edits...)
}

// Answers returns a copy of the callback answers.
func (m *MockService) Answers() []AnsweredCallback {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AnsweredCallback(nil), m.answers...)
}

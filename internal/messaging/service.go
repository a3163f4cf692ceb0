// Package messaging connects chat transports to the bot: it renders outbound
// messages for text-only channels, turns inbound messages into events and feeds
// them to the bot through a per-user ordered ResponseHandler.
package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/BTreeMap/WellbeingBot/internal/models"
)

const (
	// DefaultChannelBufferSize defines the default buffer size for event channels
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout defines how long an emit waits on a full channel before dropping
	DefaultChannelTimeout = 1 * time.Second
)

// ErrServiceStopped is returned when sending through a stopped service.
var ErrServiceStopped = errors.New("messaging service stopped")

// Service defines a pluggable chat transport.
type Service interface {
	// SendMessage sends text to a user, with an optional keyboard.
	SendMessage(ctx context.Context, userID int64, text string, kb *models.Keyboard) (models.MessageRef, error)

	// EditMessage replaces the text of a previously sent message.
	EditMessage(ctx context.Context, ref models.MessageRef, text string) error

	// AnswerCallback acknowledges a button press, optionally with a short text.
	AnswerCallback(ctx context.Context, callbackID string, text string) error

	// Start begins any background processing (e.g., receiving inbound messages).
	Start(ctx context.Context) error

	// Stop stops background processing and closes the event channel.
	Stop() error

	// Events returns a channel of inbound user events.
	Events() <-chan models.Event
}

package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BTreeMap/WellbeingBot/internal/models"
)

// sendFunc delivers a rendered body to a phone number and returns the transport message id.
type sendFunc func(ctx context.Context, to string, body string) (string, error)

// textChannel holds what WhatsApp and Twilio share: keyboard rendering, the
// event channel, and the callback id table used to answer button presses.
type textChannel struct {
	name      string
	send      sendFunc
	events    chan models.Event
	callbacks sync.Map // callback id -> user id

	mu      sync.RWMutex
	stopped bool
}

func newTextChannel(name string, send sendFunc) *textChannel {
	return &textChannel{
		name:   name,
		send:   send,
		events: make(chan models.Event, DefaultChannelBufferSize),
	}
}

func (c *textChannel) isStopped() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stopped
}

// SendMessage renders text with kb and delivers it.
func (c *textChannel) SendMessage(ctx context.Context, userID int64, text string, kb *models.Keyboard) (models.MessageRef, error) {
	if c.isStopped() {
		return models.MessageRef{}, ErrServiceStopped
	}
	if userID <= 0 {
		return models.MessageRef{}, models.ErrInvalidUserID
	}
	to := PhoneFromUserID(userID)
	id, err := c.send(ctx, to, RenderText(text, kb))
	if err != nil {
		slog.Error(c.name+" SendMessage error", "error", err, "userID", userID)
		return models.MessageRef{}, err
	}
	slog.Debug(c.name+" message sent", "userID", userID, "messageID", id)
	return models.MessageRef{UserID: userID, MessageID: id}, nil
}

// EditMessage sends text as a new message; text channels cannot edit.
func (c *textChannel) EditMessage(ctx context.Context, ref models.MessageRef, text string) error {
	_, err := c.SendMessage(ctx, ref.UserID, text, nil)
	return err
}

// AnswerCallback sends text, if any, to the user who pressed the button.
func (c *textChannel) AnswerCallback(ctx context.Context, callbackID string, text string) error {
	v, ok := c.callbacks.LoadAndDelete(callbackID)
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownCallback, callbackID)
	}
	if text == "" {
		return nil
	}
	_, err := c.SendMessage(ctx, v.(int64), text, nil)
	return err
}

// ReleaseCallback forgets a callback id that will not be answered.
func (c *textChannel) ReleaseCallback(callbackID string) {
	c.callbacks.Delete(callbackID)
}

// Events returns the inbound event channel.
func (c *textChannel) Events() <-chan models.Event {
	return c.events
}

// emit parses a raw inbound message and pushes it to the event channel.
func (c *textChannel) emit(messageID, from, text string, at time.Time) {
	evt, err := ParseInbound(messageID, from, text, at)
	if err != nil {
		slog.Warn(c.name+" dropping unparseable inbound message", "from", from, "error", err)
		return
	}
	if evt.Callback != nil {
		c.callbacks.Store(evt.Callback.CallbackID, evt.Callback.UserID)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stopped {
		slog.Warn(c.name+" dropping inbound message (service stopped)", "userID", evt.UserID())
		return
	}
	select {
	case c.events <- evt:
		slog.Debug(c.name+" inbound event forwarded", "userID", evt.UserID(), "kind", evt.Kind)
	case <-time.After(DefaultChannelTimeout):
		if evt.Callback != nil {
			c.callbacks.Delete(evt.Callback.CallbackID)
		}
		slog.Warn(c.name+" events channel blocked, dropping message", "userID", evt.UserID(), "timeout", DefaultChannelTimeout)
	}
}

// stop closes the event channel once.
func (c *textChannel) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.events)
	slog.Info(c.name + " stopped and channels closed")
}

// Package flow defines the conversational core of WellbeingBot: the per-user context
// store, the input classifier, the metric loggers, the achievement engine and the bot
// router that ties them to a transport.
package flow

import (
	"context"
	"time"

	"github.com/BTreeMap/WellbeingBot/internal/models"
)

// ContextStore holds the single pending expectation of each user. It is never persisted;
// after a restart every user has no pending expectation.
type ContextStore interface {
	// Set overwrites the user's current expectation
	Set(userID int64, kind models.ExpectationKind)

	// Get returns the user's current expectation, or ExpectationNone
	Get(userID int64) models.ExpectationKind

	// Clear resets the user's expectation to ExpectationNone
	Clear(userID int64)
}

// Timer defines the interface for scheduling delayed actions.
type Timer interface {
	// ScheduleAfter schedules a function to run once after a delay and returns its id
	ScheduleAfter(userID int64, delay time.Duration, description string, fn func()) (string, error)

	// Cancel cancels a scheduled function by id
	Cancel(id string) error

	// ListActive returns information about all pending timers
	ListActive() []models.TimerInfo

	// Stop cancels every pending timer
	Stop()
}

// Responder is the outbound half of a transport.
type Responder interface {
	SendMessage(ctx context.Context, userID int64, text string, kb *models.Keyboard) (models.MessageRef, error)
	EditMessage(ctx context.Context, ref models.MessageRef, text string) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// TipSource supplies short tips for a topic.
type TipSource interface {
	Tips(ctx context.Context, topic string) ([]string, error)
}

// Package models defines conversation state structures for WellbeingBot.
package models

import "time"

// ExpectationKind is the single pending free-text expectation a user may have.
type ExpectationKind string

const (
	// ExpectationNone means free text is classified by shape only.
	ExpectationNone ExpectationKind = ""
	// ExpectationTaskTitle means the next message is a new task title.
	ExpectationTaskTitle ExpectationKind = "AWAITING_TASK_TITLE"
	// ExpectationTaskCompletionIndex means the next all-digit message is a task id to complete.
	ExpectationTaskCompletionIndex ExpectationKind = "AWAITING_TASK_COMPLETION_INDEX"
)

// IsValid reports whether k is one of the known expectation kinds.
func (k ExpectationKind) IsValid() bool {
	switch k {
	case ExpectationNone, ExpectationTaskTitle, ExpectationTaskCompletionIndex:
		return true
	default:
		return false
	}
}

// ClassificationKind is the interpretation chosen for a free-text message.
type ClassificationKind string

const (
	ClassMenuCommand         ClassificationKind = "MENU_COMMAND"
	ClassWaterAmount         ClassificationKind = "WATER_AMOUNT"
	ClassSleepHours          ClassificationKind = "SLEEP_HOURS"
	ClassStepsCount          ClassificationKind = "STEPS_COUNT"
	ClassTaskTitle           ClassificationKind = "TASK_TITLE"
	ClassTaskCompletionIndex ClassificationKind = "TASK_COMPLETION_INDEX"
	ClassUnrouted            ClassificationKind = "UNROUTED"
)

// Classification is the result of classifying a free-text message. The raw text is
// kept; the matching logger parses and validates it. For ClassMenuCommand, Text is
// the canonical menu label or command.
type Classification struct {
	Kind ClassificationKind `json:"kind"`
	Text string             `json:"text"`
}

// TimerInfo provides information about an active timer.
type TimerInfo struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Remaining   string    `json:"remaining"`
	Description string    `json:"description"`
}

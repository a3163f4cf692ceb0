// Package models defines the core data structures for WellbeingBot.
//
// It includes the per-user records (metric logs, tasks, achievements), the inbound
// transport events and the API response envelope shared across modules.
package models

import (
	"errors"
	"fmt"
	"time"
)

// Validation constants for logged values.
const (
	// MinTaskTitleLength is the minimum number of characters of a trimmed task title.
	MinTaskTitleLength = 3
	// MaxSleepHours is the upper bound (inclusive) of a sleep log entry.
	MaxSleepHours = 24.0
	// MinMoodScore is the lowest mood score.
	MinMoodScore = 1
	// MaxMoodScore is the highest mood score.
	MaxMoodScore = 5
)

// Error variables for better error handling and testability
var (
	ErrTitleTooShort    = errors.New("task title is too short")
	ErrValueOutOfRange  = errors.New("value is out of range")
	ErrTaskNotFound     = errors.New("task not found")
	ErrUnknownCallback  = errors.New("unknown callback data")
	ErrInvalidUserID    = errors.New("invalid user id")
	ErrEmptyMessageText = errors.New("message text cannot be empty")
)

// ValidationError reports a user-correctable input problem.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// User is a person talking to the bot. Created on first contact, never mutated.
type User struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// MetricKind identifies one of the four logged metrics.
type MetricKind string

const (
	MetricWater MetricKind = "water"
	MetricSleep MetricKind = "sleep"
	MetricSteps MetricKind = "steps"
	MetricMood  MetricKind = "mood"
)

// WaterLog records an amount of water in milliliters.
type WaterLog struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	AmountML  int       `json:"amount_ml"`
	CreatedAt time.Time `json:"created_at"`
}

// SleepLog records hours slept.
type SleepLog struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Hours     float64   `json:"hours"`
	CreatedAt time.Time `json:"created_at"`
}

// StepsLog records a step (or activity unit) count.
type StepsLog struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Steps     int       `json:"steps"`
	CreatedAt time.Time `json:"created_at"`
}

// MoodLog records a mood score in [1,5].
type MoodLog struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// Task is an entry of the user's study task list. Done only ever moves false -> true.
type Task struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
}

// AchievementTitle is a title from the fixed achievement catalog.
type AchievementTitle string

const (
	AchievementLegendOfSteps      AchievementTitle = "Legend of Steps"
	AchievementActiveDay          AchievementTitle = "Active Day"
	AchievementFocusAndDiscipline AchievementTitle = "Focus and Discipline"
)

// Badge returns the emoji shown next to the title.
func (t AchievementTitle) Badge() string {
	switch t {
	case AchievementLegendOfSteps:
		return "🏅"
	case AchievementActiveDay:
		return "🎖"
	case AchievementFocusAndDiscipline:
		return "🎓"
	default:
		return "⭐"
	}
}

// Achievement is an append-only event record; the same title may appear many times.
type Achievement struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	Title     AchievementTitle `json:"title"`
	CreatedAt time.Time        `json:"created_at"`
}

// MoodStats is the all-time mood aggregate of a user. Count is always >= 1.
type MoodStats struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Summary aggregates every logged metric of a user.
type Summary struct {
	WaterCount   int        `json:"water_count"`
	WaterTotalML int64      `json:"water_total_ml"`
	SleepCount   int        `json:"sleep_count"`
	SleepAvg     float64    `json:"sleep_avg_hours"`
	StepsCount   int        `json:"steps_count"`
	StepsTotal   int64      `json:"steps_total"`
	Mood         *MoodStats `json:"mood,omitempty"`
	TasksOpen    int        `json:"tasks_open"`
	TasksDone    int        `json:"tasks_done"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}

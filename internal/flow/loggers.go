package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/BTreeMap/WellbeingBot/internal/models"
	"github.com/BTreeMap/WellbeingBot/internal/store"
)

// Loggers validate and persist one metric entry or task per call. They own the
// expectation transitions that follow a task title or a task completion.
type Loggers struct {
	store    store.Store
	contexts ContextStore
}

// NewLoggers creates Loggers over a store and a context store.
func NewLoggers(st store.Store, cs ContextStore) *Loggers {
	return &Loggers{store: st, contexts: cs}
}

// StepsResult is the outcome of a steps entry.
type StepsResult struct {
	Steps        int
	Achievements []models.AchievementTitle
}

// CompletionResult is the outcome of a task completion attempt.
type CompletionResult struct {
	TaskID       int64
	Found        bool
	Achievements []models.AchievementTitle
}

func validationErr(field, value string, err error) error {
	return &models.ValidationError{Field: field, Value: value, Err: err}
}

// LogWater records a water amount in milliliters.
func (l *Loggers) LogWater(ctx context.Context, userID int64, text string) (int, error) {
	amount, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || amount <= 0 {
		slog.Debug("Loggers LogWater rejected", "userID", userID, "text", text)
		return 0, validationErr("water amount", text, models.ErrValueOutOfRange)
	}
	if err := l.store.AppendWaterLog(ctx, userID, amount); err != nil {
		return 0, fmt.Errorf("log water: %w", err)
	}
	return amount, nil
}

// LogSleep records hours of sleep; 0 < hours <= 24.
func (l *Loggers) LogSleep(ctx context.Context, userID int64, text string) (float64, error) {
	hours, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || hours <= 0 || hours > models.MaxSleepHours {
		slog.Debug("Loggers LogSleep rejected", "userID", userID, "text", text)
		return 0, validationErr("sleep hours", text, models.ErrValueOutOfRange)
	}
	if err := l.store.AppendSleepLog(ctx, userID, hours); err != nil {
		return 0, fmt.Errorf("log sleep: %w", err)
	}
	return hours, nil
}

// LogSteps records a steps count and awards any achievement it earns.
func (l *Loggers) LogSteps(ctx context.Context, userID int64, text string) (StepsResult, error) {
	steps, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || steps < 0 {
		slog.Debug("Loggers LogSteps rejected", "userID", userID, "text", text)
		return StepsResult{}, validationErr("steps", text, models.ErrValueOutOfRange)
	}
	if err := l.store.AppendStepsLog(ctx, userID, steps); err != nil {
		return StepsResult{}, fmt.Errorf("log steps: %w", err)
	}
	earned, err := l.award(ctx, userID, EvaluateAchievements(TriggerStepsLogged, steps))
	if err != nil {
		return StepsResult{Steps: steps}, err
	}
	return StepsResult{Steps: steps, Achievements: earned}, nil
}

// LogMood records a mood score in [1,5] and returns the updated aggregate.
func (l *Loggers) LogMood(ctx context.Context, userID int64, score int) (*models.MoodStats, error) {
	if score < models.MinMoodScore || score > models.MaxMoodScore {
		return nil, validationErr("mood score", strconv.Itoa(score), models.ErrValueOutOfRange)
	}
	if err := l.store.AppendMoodLog(ctx, userID, score); err != nil {
		return nil, fmt.Errorf("log mood: %w", err)
	}
	stats, err := l.store.GetMoodStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("mood stats: %w", err)
	}
	return stats, nil
}

// AddTaskTitle stores a new task. A title shorter than the minimum is rejected and
// the pending expectation is kept so the user can retry; on success it is cleared.
func (l *Loggers) AddTaskTitle(ctx context.Context, userID int64, text string) (models.Task, error) {
	title := strings.TrimSpace(text)
	if utf8.RuneCountInString(title) < models.MinTaskTitleLength {
		slog.Debug("Loggers AddTaskTitle rejected", "userID", userID, "length", utf8.RuneCountInString(title))
		return models.Task{}, validationErr("title", title, models.ErrTitleTooShort)
	}
	id, err := l.store.AddTask(ctx, userID, title)
	if err != nil {
		return models.Task{}, fmt.Errorf("add task: %w", err)
	}
	l.contexts.Clear(userID)
	return models.Task{ID: id, UserID: userID, Title: title}, nil
}

// CompleteTask marks the numbered task done. The pending expectation is consumed
// whatever the outcome. A task that does not exist or belongs to another user
// yields Found == false and no error.
func (l *Loggers) CompleteTask(ctx context.Context, userID int64, text string) (CompletionResult, error) {
	defer l.contexts.Clear(userID)

	taskID, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		// Too many digits for an id; no such task can exist.
		return CompletionResult{}, nil
	}
	found, err := l.store.CompleteTask(ctx, userID, taskID)
	if err != nil {
		return CompletionResult{TaskID: taskID}, fmt.Errorf("complete task: %w", err)
	}
	if !found {
		slog.Debug("Loggers CompleteTask not found", "userID", userID, "taskID", taskID)
		return CompletionResult{TaskID: taskID}, nil
	}
	earned, err := l.award(ctx, userID, EvaluateAchievements(TriggerTaskCompleted, 0))
	if err != nil {
		return CompletionResult{TaskID: taskID, Found: true}, err
	}
	return CompletionResult{TaskID: taskID, Found: true, Achievements: earned}, nil
}

func (l *Loggers) award(ctx context.Context, userID int64, titles []models.AchievementTitle) ([]models.AchievementTitle, error) {
	for _, title := range titles {
		if err := l.store.AddAchievement(ctx, userID, title); err != nil {
			return nil, fmt.Errorf("add achievement %q: %w", title, err)
		}
		slog.Info("Achievement awarded", "userID", userID, "title", title)
	}
	return titles, nil
}

// Package store provides storage backends for WellbeingBot.
//
// It includes an in-memory store for tests and local runs, plus SQLite and PostgreSQL
// backends. Every record is partitioned by user id; nothing is shared across users.
package store

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BTreeMap/WellbeingBot/internal/models"
)

// Store is the persistence adapter used by the bot. Metric logs and achievements are
// append-only; tasks only ever move from open to done.
type Store interface {
	// EnsureUser inserts the user if absent. It is idempotent.
	EnsureUser(ctx context.Context, userID int64) error

	AppendWaterLog(ctx context.Context, userID int64, amountML int) error
	AppendSleepLog(ctx context.Context, userID int64, hours float64) error
	AppendStepsLog(ctx context.Context, userID int64, steps int) error
	AppendMoodLog(ctx context.Context, userID int64, score int) error

	// AddTask stores an open task and returns its id.
	AddTask(ctx context.Context, userID int64, title string) (int64, error)
	// ListTasks returns the user's tasks, newest first.
	ListTasks(ctx context.Context, userID int64) ([]models.Task, error)
	// CompleteTask marks the task done if it exists and belongs to userID.
	// It reports whether a matching task was found.
	CompleteTask(ctx context.Context, userID, taskID int64) (bool, error)

	AddAchievement(ctx context.Context, userID int64, title models.AchievementTitle) error
	// ListAchievements returns the user's achievements, newest first.
	ListAchievements(ctx context.Context, userID int64) ([]models.Achievement, error)

	// GetMoodStats returns nil when the user has no mood entries.
	GetMoodStats(ctx context.Context, userID int64) (*models.MoodStats, error)
	// GetSummary aggregates every metric of the user.
	GetSummary(ctx context.Context, userID int64) (models.Summary, error)

	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType returns "postgres" for PostgreSQL connection strings (URL form or
// key=value pairs) and "sqlite3" for everything else.
func DetectDSNType(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	if strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, "?") {
		return "sqlite3"
	}
	fields := strings.Fields(dsn)
	if len(fields) == 0 {
		return "sqlite3"
	}
	for _, f := range fields {
		if !strings.Contains(f, "=") {
			return "sqlite3"
		}
	}
	return "postgres"
}

// Backend is a Store that also deduplicates inbound messages. Every store in
// this package is a Backend.
type Backend interface {
	Store
	DedupRepo
}

// Open returns the backend selected by the configured DSN: PostgreSQL or SQLite
// as DetectDSNType decides, or an in-memory store when no DSN is set.
func Open(opts ...Option) (Backend, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	switch {
	case cfg.DSN == "":
		slog.Info("Store Open using in-memory store")
		return NewInMemoryStore(), nil
	case DetectDSNType(cfg.DSN) == "postgres":
		st, err := NewPostgresStore(opts...)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		st, err := NewSQLiteStore(opts...)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
}

// InMemoryStore is a simple in-memory store. It is safe for concurrent use.
type InMemoryStore struct {
	mu           sync.RWMutex
	users        map[int64]models.User
	water        []models.WaterLog
	sleep        []models.SleepLog
	steps        []models.StepsLog
	moods        []models.MoodLog
	tasks        []models.Task
	achievements []models.Achievement
	dedup        map[string]*DedupRecord
	nextID       int64
	now          func() time.Time
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users: make(map[int64]models.User),
		dedup: make(map[string]*DedupRecord),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *InMemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *InMemoryStore) EnsureUser(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		s.users[userID] = models.User{ID: userID, CreatedAt: s.now()}
		slog.Debug("InMemoryStore EnsureUser created user", "userID", userID)
	}
	return nil
}

func (s *InMemoryStore) AppendWaterLog(ctx context.Context, userID int64, amountML int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.water = append(s.water, models.WaterLog{ID: s.id(), UserID: userID, AmountML: amountML, CreatedAt: s.now()})
	return nil
}

func (s *InMemoryStore) AppendSleepLog(ctx context.Context, userID int64, hours float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleep = append(s.sleep, models.SleepLog{ID: s.id(), UserID: userID, Hours: hours, CreatedAt: s.now()})
	return nil
}

func (s *InMemoryStore) AppendStepsLog(ctx context.Context, userID int64, steps int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, models.StepsLog{ID: s.id(), UserID: userID, Steps: steps, CreatedAt: s.now()})
	return nil
}

func (s *InMemoryStore) AppendMoodLog(ctx context.Context, userID int64, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moods = append(s.moods, models.MoodLog{ID: s.id(), UserID: userID, Score: score, CreatedAt: s.now()})
	return nil
}

func (s *InMemoryStore) AddTask(ctx context.Context, userID int64, title string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := models.Task{ID: s.id(), UserID: userID, Title: title, CreatedAt: s.now()}
	s.tasks = append(s.tasks, t)
	return t.ID, nil
}

func (s *InMemoryStore) ListTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Task
	for _, t := range s.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) CompleteTask(ctx context.Context, userID, taskID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == taskID && s.tasks[i].UserID == userID {
			s.tasks[i].Done = true
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) AddAchievement(ctx context.Context, userID int64, title models.AchievementTitle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.achievements = append(s.achievements, models.Achievement{ID: s.id(), UserID: userID, Title: title, CreatedAt: s.now()})
	return nil
}

func (s *InMemoryStore) ListAchievements(ctx context.Context, userID int64) ([]models.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Achievement
	for i := len(s.achievements) - 1; i >= 0; i-- {
		if s.achievements[i].UserID == userID {
			out = append(out, s.achievements[i])
		}
	}
	return out, nil
}

func (s *InMemoryStore) GetMoodStats(ctx context.Context, userID int64) (*models.MoodStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.moodStatsLocked(userID), nil
}

func (s *InMemoryStore) moodStatsLocked(userID int64) *models.MoodStats {
	var sum, n int
	for _, m := range s.moods {
		if m.UserID == userID {
			sum += m.Score
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return &models.MoodStats{Average: float64(sum) / float64(n), Count: n}
}

func (s *InMemoryStore) GetSummary(ctx context.Context, userID int64) (models.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum models.Summary
	for _, w := range s.water {
		if w.UserID == userID {
			sum.WaterCount++
			sum.WaterTotalML += int64(w.AmountML)
		}
	}
	var sleepTotal float64
	for _, sl := range s.sleep {
		if sl.UserID == userID {
			sum.SleepCount++
			sleepTotal += sl.Hours
		}
	}
	if sum.SleepCount > 0 {
		sum.SleepAvg = sleepTotal / float64(sum.SleepCount)
	}
	for _, st := range s.steps {
		if st.UserID == userID {
			sum.StepsCount++
			sum.StepsTotal += int64(st.Steps)
		}
	}
	for _, t := range s.tasks {
		if t.UserID != userID {
			continue
		}
		if t.Done {
			sum.TasksDone++
		} else {
			sum.TasksOpen++
		}
	}
	sum.Mood = s.moodStatsLocked(userID)
	return sum, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}

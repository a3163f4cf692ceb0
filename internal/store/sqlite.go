// Package store provides storage backends for WellbeingBot.
//
// This file implements an SQLite-backed store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/BTreeMap/WellbeingBot/internal/models"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

type SQLiteStore struct {
	db *sql.DB
}

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		db.Close()
		return nil, err
	}

	if err := runMigrations(context.Background(), db, goose.DialectSQLite3, "migrations/sqlite"); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	// Single writer; avoids SQLITE_BUSY between concurrent worker shards.
	db.SetMaxOpenConns(1)

	return &SQLiteStore{db: db}, nil
}

func now() time.Time { return time.Now().UTC() }

func (s *SQLiteStore) EnsureUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO users (id, created_at) VALUES (?, ?)`, userID, now())
	if err != nil {
		slog.Error("SQLiteStore EnsureUser failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to ensure user %d: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) AppendWaterLog(ctx context.Context, userID int64, amountML int) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO water_logs (user_id, amount_ml, created_at) VALUES (?, ?, ?)`, userID, amountML, now())
	if err != nil {
		slog.Error("SQLiteStore AppendWaterLog failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to insert water log: %w", err)
	}
	slog.Debug("SQLiteStore AppendWaterLog succeeded", "userID", userID, "amountML", amountML)
	return nil
}

func (s *SQLiteStore) AppendSleepLog(ctx context.Context, userID int64, hours float64) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO sleep_logs (user_id, hours, created_at) VALUES (?, ?, ?)`, userID, hours, now())
	if err != nil {
		slog.Error("SQLiteStore AppendSleepLog failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to insert sleep log: %w", err)
	}
	slog.Debug("SQLiteStore AppendSleepLog succeeded", "userID", userID, "hours", hours)
	return nil
}

func (s *SQLiteStore) AppendStepsLog(ctx context.Context, userID int64, steps int) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO steps_logs (user_id, steps, created_at) VALUES (?, ?, ?)`, userID, steps, now())
	if err != nil {
		slog.Error("SQLiteStore AppendStepsLog failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to insert steps log: %w", err)
	}
	slog.Debug("SQLiteStore AppendStepsLog succeeded", "userID", userID, "steps", steps)
	return nil
}

func (s *SQLiteStore) AppendMoodLog(ctx context.Context, userID int64, score int) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO mood_logs (user_id, score, created_at) VALUES (?, ?, ?)`, userID, score, now())
	if err != nil {
		slog.Error("SQLiteStore AppendMoodLog failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to insert mood log: %w", err)
	}
	slog.Debug("SQLiteStore AppendMoodLog succeeded", "userID", userID, "score", score)
	return nil
}

func (s *SQLiteStore) AddTask(ctx context.Context, userID int64, title string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO tasks (user_id, title, done, created_at) VALUES (?, ?, 0, ?)`, userID, title, now())
	if err != nil {
		slog.Error("SQLiteStore AddTask failed", "error", err, "userID", userID)
		return 0, fmt.Errorf("failed to insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read task id: %w", err)
	}
	slog.Debug("SQLiteStore AddTask succeeded", "userID", userID, "taskID", id)
	return id, nil
}

func (s *SQLiteStore) ListTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, done, created_at FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		slog.Error("SQLiteStore ListTasks query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	return scanTasks(rows)
}

func (s *SQLiteStore) CompleteTask(ctx context.Context, userID, taskID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET done = 1 WHERE id = ? AND user_id = ?`, taskID, userID)
	if err != nil {
		slog.Error("SQLiteStore CompleteTask failed", "error", err, "userID", userID, "taskID", taskID)
		return false, fmt.Errorf("failed to complete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	slog.Debug("SQLiteStore CompleteTask finished", "userID", userID, "taskID", taskID, "found", n > 0)
	return n > 0, nil
}

func (s *SQLiteStore) AddAchievement(ctx context.Context, userID int64, title models.AchievementTitle) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO achievements (user_id, title, created_at) VALUES (?, ?, ?)`, userID, string(title), now())
	if err != nil {
		slog.Error("SQLiteStore AddAchievement failed", "error", err, "userID", userID, "title", title)
		return fmt.Errorf("failed to insert achievement: %w", err)
	}
	slog.Debug("SQLiteStore AddAchievement succeeded", "userID", userID, "title", title)
	return nil
}

func (s *SQLiteStore) ListAchievements(ctx context.Context, userID int64) ([]models.Achievement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, created_at FROM achievements WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		slog.Error("SQLiteStore ListAchievements query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	return scanAchievements(rows)
}

func (s *SQLiteStore) GetMoodStats(ctx context.Context, userID int64) (*models.MoodStats, error) {
	var avg sql.NullFloat64
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT AVG(score), COUNT(*) FROM mood_logs WHERE user_id = ?`, userID).Scan(&avg, &count)
	if err != nil {
		slog.Error("SQLiteStore GetMoodStats failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query mood stats: %w", err)
	}
	return moodStatsFrom(avg, count), nil
}

func (s *SQLiteStore) GetSummary(ctx context.Context, userID int64) (models.Summary, error) {
	var sum models.Summary
	var sleepAvg sql.NullFloat64
	queries := []struct {
		query string
		dest  []any
	}{
		{`SELECT COUNT(*), COALESCE(SUM(amount_ml), 0) FROM water_logs WHERE user_id = ?`, []any{&sum.WaterCount, &sum.WaterTotalML}},
		{`SELECT COUNT(*), AVG(hours) FROM sleep_logs WHERE user_id = ?`, []any{&sum.SleepCount, &sleepAvg}},
		{`SELECT COUNT(*), COALESCE(SUM(steps), 0) FROM steps_logs WHERE user_id = ?`, []any{&sum.StepsCount, &sum.StepsTotal}},
		{`SELECT COALESCE(SUM(CASE WHEN done = 0 THEN 1 ELSE 0 END), 0), COALESCE(SUM(CASE WHEN done <> 0 THEN 1 ELSE 0 END), 0) FROM tasks WHERE user_id = ?`, []any{&sum.TasksOpen, &sum.TasksDone}},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query, userID).Scan(q.dest...); err != nil {
			slog.Error("SQLiteStore GetSummary query failed", "error", err, "userID", userID)
			return models.Summary{}, fmt.Errorf("failed to query summary: %w", err)
		}
	}
	if sleepAvg.Valid {
		sum.SleepAvg = sleepAvg.Float64
	}
	mood, err := s.GetMoodStats(ctx, userID)
	if err != nil {
		return models.Summary{}, err
	}
	sum.Mood = mood
	return sum, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}

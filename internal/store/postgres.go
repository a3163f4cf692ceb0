// Package store provides storage backends for WellbeingBot.
//
// This file implements a PostgreSQL-backed store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/BTreeMap/WellbeingBot/internal/models"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		db.Close()
		return nil, err
	}

	if err := runMigrations(context.Background(), db, goose.DialectPostgres, "migrations/postgres"); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) EnsureUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, created_at) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, userID, now())
	if err != nil {
		slog.Error("PostgresStore EnsureUser failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to ensure user %d: %w", userID, err)
	}
	return nil
}

func (s *PostgresStore) AppendWaterLog(ctx context.Context, userID int64, amountML int) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO water_logs (user_id, amount_ml, created_at) VALUES ($1, $2, $3)`, userID, amountML, now())
	if err != nil {
		slog.Error("PostgresStore AppendWaterLog failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to insert water log: %w", err)
	}
	slog.Debug("PostgresStore AppendWaterLog succeeded", "userID", userID, "amountML", amountML)
	return nil
}

func (s *PostgresStore) AppendSleepLog(ctx context.Context, userID int64, hours float64) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO sleep_logs (user_id, hours, created_at) VALUES ($1, $2, $3)`, userID, hours, now())
	if err != nil {
		slog.Error("PostgresStore AppendSleepLog failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to insert sleep log: %w", err)
	}
	slog.Debug("PostgresStore AppendSleepLog succeeded", "userID", userID, "hours", hours)
	return nil
}

func (s *PostgresStore) AppendStepsLog(ctx context.Context, userID int64, steps int) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO steps_logs (user_id, steps, created_at) VALUES ($1, $2, $3)`, userID, steps, now())
	if err != nil {
		slog.Error("PostgresStore AppendStepsLog failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to insert steps log: %w", err)
	}
	slog.Debug("PostgresStore AppendStepsLog succeeded", "userID", userID, "steps", steps)
	return nil
}

func (s *PostgresStore) AppendMoodLog(ctx context.Context, userID int64, score int) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO mood_logs (user_id, score, created_at) VALUES ($1, $2, $3)`, userID, score, now())
	if err != nil {
		slog.Error("PostgresStore AppendMoodLog failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to insert mood log: %w", err)
	}
	slog.Debug("PostgresStore AppendMoodLog succeeded", "userID", userID, "score", score)
	return nil
}

func (s *PostgresStore) AddTask(ctx context.Context, userID int64, title string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO tasks (user_id, title, done, created_at) VALUES ($1, $2, FALSE, $3) RETURNING id`,
		userID, title, now()).Scan(&id)
	if err != nil {
		slog.Error("PostgresStore AddTask failed", "error", err, "userID", userID)
		return 0, fmt.Errorf("failed to insert task: %w", err)
	}
	slog.Debug("PostgresStore AddTask succeeded", "userID", userID, "taskID", id)
	return id, nil
}

func (s *PostgresStore) ListTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, done, created_at FROM tasks WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		slog.Error("PostgresStore ListTasks query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	return scanTasks(rows)
}

func (s *PostgresStore) CompleteTask(ctx context.Context, userID, taskID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET done = TRUE WHERE id = $1 AND user_id = $2`, taskID, userID)
	if err != nil {
		slog.Error("PostgresStore CompleteTask failed", "error", err, "userID", userID, "taskID", taskID)
		return false, fmt.Errorf("failed to complete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	slog.Debug("PostgresStore CompleteTask finished", "userID", userID, "taskID", taskID, "found", n > 0)
	return n > 0, nil
}

func (s *PostgresStore) AddAchievement(ctx context.Context, userID int64, title models.AchievementTitle) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO achievements (user_id, title, created_at) VALUES ($1, $2, $3)`, userID, string(title), now())
	if err != nil {
		slog.Error("PostgresStore AddAchievement failed", "error", err, "userID", userID, "title", title)
		return fmt.Errorf("failed to insert achievement: %w", err)
	}
	slog.Debug("PostgresStore AddAchievement succeeded", "userID", userID, "title", title)
	return nil
}

func (s *PostgresStore) ListAchievements(ctx context.Context, userID int64) ([]models.Achievement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, created_at FROM achievements WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		slog.Error("PostgresStore ListAchievements query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	return scanAchievements(rows)
}

func (s *PostgresStore) GetMoodStats(ctx context.Context, userID int64) (*models.MoodStats, error) {
	var avg sql.NullFloat64
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT AVG(score)::float8, COUNT(*) FROM mood_logs WHERE user_id = $1`, userID).Scan(&avg, &count)
	if err != nil {
		slog.Error("PostgresStore GetMoodStats failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query mood stats: %w", err)
	}
	return moodStatsFrom(avg, count), nil
}

func (s *PostgresStore) GetSummary(ctx context.Context, userID int64) (models.Summary, error) {
	var sum models.Summary
	var sleepAvg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM water_logs WHERE user_id = $1),
			(SELECT COALESCE(SUM(amount_ml), 0) FROM water_logs WHERE user_id = $1),
			(SELECT COUNT(*) FROM sleep_logs WHERE user_id = $1),
			(SELECT AVG(hours) FROM sleep_logs WHERE user_id = $1),
			(SELECT COUNT(*) FROM steps_logs WHERE user_id = $1),
			(SELECT COALESCE(SUM(steps), 0) FROM steps_logs WHERE user_id = $1),
			(SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND NOT done),
			(SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND done)`, userID).Scan(
		&sum.WaterCount, &sum.WaterTotalML,
		&sum.SleepCount, &sleepAvg,
		&sum.StepsCount, &sum.StepsTotal,
		&sum.TasksOpen, &sum.TasksDone,
	)
	if err != nil {
		slog.Error("PostgresStore GetSummary query failed", "error", err, "userID", userID)
		return models.Summary{}, fmt.Errorf("failed to query summary: %w", err)
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

// Close closes the PostgreSQL database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing PostgreSQL database connection")
	return s.db.Close()
}

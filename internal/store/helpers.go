package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/BTreeMap/WellbeingBot/internal/models"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// runMigrations applies the embedded goose migrations found under dir.
func runMigrations(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string) error {
	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("open migrations %s: %w", dir, err)
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		slog.Debug("store migration applied", "dialect", dialect, "source", r.Source.Path, "duration", r.Duration)
	}
	return nil
}

// scanTasks drains rows of (id, user_id, title, done, created_at).
func scanTasks(rows *sql.Rows) ([]models.Task, error) {
	defer rows.Close()
	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Done, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task failed: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task rows failed: %w", err)
	}
	return tasks, nil
}

// scanAchievements drains rows of (id, user_id, title, created_at).
func scanAchievements(rows *sql.Rows) ([]models.Achievement, error) {
	defer rows.Close()
	var out []models.Achievement
	for rows.Next() {
		var a models.Achievement
		var title string
		if err := rows.Scan(&a.ID, &a.UserID, &title, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan achievement failed: %w", err)
		}
		a.Title = models.AchievementTitle(title)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate achievement rows failed: %w", err)
	}
	return out, nil
}

// moodStatsFrom turns an AVG/COUNT pair into MoodStats, or nil when there are no entries.
func moodStatsFrom(avg sql.NullFloat64, count int) *models.MoodStats {
	if count == 0 || !avg.Valid {
		return nil
	}
	return &models.MoodStats{Average: avg.Float64, Count: count}
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"yagpt-bot/internal/models"
)

// PostgresUsageCounter stores one row per user. No total is stored: Snapshot
// sums the rows it reads, so it cannot drift from the per-user counts.
type PostgresUsageCounter struct {
	pool *pgxpool.Pool
}

func NewPostgresUsageCounter(pool *pgxpool.Pool) *PostgresUsageCounter {
	return &PostgresUsageCounter{pool: pool}
}

func (r *PostgresUsageCounter) Record(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO usage_counts (user_id, messages, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET messages = usage_counts.messages + 1, updated_at = NOW()`

	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to record usage for %d: %w", userID, err)
	}
	return nil
}

func (r *PostgresUsageCounter) Snapshot(ctx context.Context) (models.UsageSnapshot, error) {
	rows, err := r.pool.Query(ctx, "SELECT user_id, messages FROM usage_counts ORDER BY user_id")
	if err != nil {
		return models.UsageSnapshot{}, fmt.Errorf("failed to query usage: %w", err)
	}
	defer rows.Close()

	snap := models.UsageSnapshot{Users: make(map[int64]int64)}
	for rows.Next() {
		var id, n int64
		if err := rows.Scan(&id, &n); err != nil {
			return models.UsageSnapshot{}, fmt.Errorf("failed to scan usage row: %w", err)
		}
		snap.Users[id] = n
		snap.Messages += n
	}
	if err := rows.Err(); err != nil {
		return models.UsageSnapshot{}, fmt.Errorf("failed to iterate usage rows: %w", err)
	}
	return snap, nil
}

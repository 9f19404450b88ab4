package cooldown

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists cooldown records in the owner_cooldowns table.
// Reads go through the prepared statement registered by internal/db.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store over an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Get returns the owner's last-notified timestamp in epoch millis.
func (s *PostgresStore) Get(ctx context.Context, owner string) (int64, bool, error) {
	var ts int64
	err := s.pool.QueryRow(ctx, "cooldown_get", owner).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get cooldown for %s: %w", owner, err)
	}
	return ts, true, nil
}

// Set upserts the owner's last-notified timestamp.
func (s *PostgresStore) Set(ctx context.Context, owner string, ts int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO owner_cooldowns (owner_id, last_notified_at, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (owner_id)
		DO UPDATE SET last_notified_at = $2, updated_at = NOW()`,
		owner, ts,
	)
	if err != nil {
		return fmt.Errorf("set cooldown for %s: %w", owner, err)
	}
	return nil
}

// Clear removes the owner's cooldown record. Operational tool for support,
// not used by the check pipeline.
func (s *PostgresStore) Clear(ctx context.Context, owner string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM owner_cooldowns WHERE owner_id = $1`, owner)
	if err != nil {
		return fmt.Errorf("clear cooldown for %s: %w", owner, err)
	}
	return nil
}

package notify

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog records delivery outcomes in the notification_log table so
// support can answer "did this player get pinged, and why". Best effort:
// a logging failure never affects the check run.
// Nil-safe: without a database, outcomes only reach the process log.
type AuditLog struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewAuditLog creates an audit log over an existing pool.
// Returns nil if pool is nil (auditing disabled).
func NewAuditLog(pool *pgxpool.Pool, logger *slog.Logger) *AuditLog {
	if pool == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLog{pool: pool, logger: logger}
}

// RecordSent logs a successful delivery.
func (l *AuditLog) RecordSent(ctx context.Context, owner, beastID, title string) {
	l.record(ctx, owner, beastID, title, "sent", "")
}

// RecordFailed logs a failed delivery with the failure reason.
func (l *AuditLog) RecordFailed(ctx context.Context, owner, beastID, title, reason string) {
	l.record(ctx, owner, beastID, title, "failed", reason)
}

func (l *AuditLog) record(ctx context.Context, owner, beastID, title, status, reason string) {
	if l == nil {
		return
	}
	_, err := l.pool.Exec(ctx, `
		INSERT INTO notification_log (owner_id, beast_id, title, status, last_error, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NOW())`,
		owner, beastID, title, status, reason,
	)
	if err != nil {
		l.logger.Warn("Failed to record notification outcome",
			"owner", owner, "beast_id", beastID, "error", err)
	}
}

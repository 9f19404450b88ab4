package watch

import (
	"context"
	"log/slog"
	"time"
)

// StartScheduler triggers a check run on a fixed interval. Blocks until ctx
// is cancelled. Intended to be called with `go`. onResult, if non-nil,
// receives each successful run's result.
//
// A slow run can overlap the next tick. The cooldown store is the only
// shared state between runs; an overlapping run may duplicate a
// notification inside the read-then-write gap.
func StartScheduler(ctx context.Context, runner *Runner, interval time.Duration, onResult func(*Result), logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Check scheduler started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			result, err := runner.Run(ctx)
			if err != nil {
				logger.Error("Check run failed", "error", err)
				continue
			}
			logger.Info("Scheduled check run finished", "summary", result.Summary())
			if onResult != nil {
				onResult(result)
			}
		case <-ctx.Done():
			logger.Info("Check scheduler stopped")
			return
		}
	}
}

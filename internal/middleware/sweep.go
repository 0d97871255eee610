package middleware

import (
	"context"
	"log/slog"
	"time"
)

// IdempotencyPruner deletes expired idempotency records
type IdempotencyPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SweepIdempotencyKeys prunes keys older than ttl now and then every
// interval, until ctx is cancelled.
func SweepIdempotencyKeys(ctx context.Context, repo IdempotencyPruner, ttl, interval time.Duration, logger *slog.Logger) {
	if ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		cutoff := time.Now().UTC().Add(-ttl)
		deleted, err := repo.DeleteOlderThan(ctx, cutoff)
		switch {
		case err != nil && ctx.Err() == nil:
			logger.Error("failed to prune idempotency keys", "error", err)
		case deleted > 0:
			logger.Info("pruned idempotency keys", "deleted", deleted, "cutoff", cutoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

package store

import (
	"context"
	"log/slog"
	"time"
)

const ttlWorkerInterval = 5 * time.Minute

// Purger is implemented by session stores that need periodic cleanup.
// Redis expires keys natively; the in-memory store does not.
type Purger interface {
	PurgeExpired() int
}

// StartTTLWorker runs a background goroutine that periodically sweeps
// expired sessions out of the store. It stops when ctx is canceled.
func StartTTLWorker(ctx context.Context, store Purger, logger *slog.Logger) {
	ticker := time.NewTicker(ttlWorkerInterval)
	go func() {
		defer ticker.Stop()
		logger.Info("TTL worker started", "interval", ttlWorkerInterval)

		for {
			select {
			case <-ticker.C:
				if purged := store.PurgeExpired(); purged > 0 {
					logger.Info("TTL worker purged expired sessions", "count", purged)
				}
			case <-ctx.Done():
				logger.Info("TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

package interview

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/mockinterview/internal/store"
)

// DefaultSweepInterval is used when StartIdleSweeper receives a non-positive interval.
const DefaultSweepInterval = 5 * time.Minute

// StartIdleSweeper runs a background goroutine that periodically removes
// sessions idle for longer than ttl. It returns immediately; the goroutine
// exits when ctx is cancelled. A non-positive ttl disables sweeping.
func StartIdleSweeper(ctx context.Context, repo store.Repository, ttl, interval time.Duration, logger *slog.Logger) {
	if ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		logger.Info("Idle session sweeper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweepIdle(ctx, repo, ttl, logger)
			case <-ctx.Done():
				logger.Info("Idle session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepIdle(ctx context.Context, repo store.Repository, ttl time.Duration, logger *slog.Logger) {
	deleted, err := repo.DeleteIdle(ctx, time.Now().Add(-ttl))
	if err != nil {
		if ctx.Err() != nil {
			logger.Debug("Idle sweep interrupted by shutdown", "error", err)
			return
		}
		logger.Error("Idle sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		logger.Info("Idle sweep removed sessions", "count", deleted)
	}
}

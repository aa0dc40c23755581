// Package retention runs the background sweep that expires revoked tokens
// and idle chat sessions.
package retention

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval is how often the sweep runs.
const DefaultInterval = 5 * time.Minute

// Store is the subset of store.Repository the sweep needs.
type Store interface {
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
	PurgeStaleChatSessions(ctx context.Context, ttl time.Duration) (int64, error)
}

// Cache is an in-memory cache whose expired entries are dropped on each
// sweep.
type Cache interface {
	PurgeExpired(now time.Time) int
}

// StartWorker runs Sweep every interval until ctx is done. The returned
// channel is closed once the goroutine has exited.
func StartWorker(ctx context.Context, repo Store, sessionTTL, interval time.Duration, caches ...Cache) <-chan struct{} {
	if interval <= 0 {
		interval = DefaultInterval
	}
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		slog.Info("Retention worker started", "interval", interval, "session_ttl", sessionTTL)

		for {
			select {
			case <-ticker.C:
				Sweep(ctx, repo, sessionTTL, time.Now(), caches...)
			case <-ctx.Done():
				slog.Info("Retention worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
	return done
}

// Sweep purges tokens that expired before now, expired cache entries and,
// when sessionTTL is positive, chat sessions idle for longer than
// sessionTTL. Failures are logged and retried on the next tick.
func Sweep(ctx context.Context, repo Store, sessionTTL time.Duration, now time.Time, caches ...Cache) {
	for _, c := range caches {
		if n := c.PurgeExpired(now); n > 0 {
			slog.Debug("Retention worker dropped expired cache entries", "count", n)
		}
	}

	if n, err := repo.PurgeExpiredTokens(ctx, now); err != nil {
		if ctx.Err() != nil {
			slog.Debug("Retention worker: context canceled during token purge", "error", err)
			return
		}
		slog.Error("Retention worker failed to purge revoked tokens", "error", err)
	} else if n > 0 {
		slog.Info("Retention worker purged revoked tokens", "count", n)
	}

	if sessionTTL <= 0 {
		return
	}
	if n, err := repo.PurgeStaleChatSessions(ctx, sessionTTL); err != nil {
		if ctx.Err() != nil {
			slog.Debug("Retention worker: context canceled during session purge", "error", err)
			return
		}
		slog.Error("Retention worker failed to purge stale chat sessions", "error", err)
	} else if n > 0 {
		slog.Info("Retention worker purged stale chat sessions", "count", n, "ttl", sessionTTL)
	}
}

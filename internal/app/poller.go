package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/ruo0o0/music-album/internal/music"
	"github.com/ruo0o0/music-album/internal/state"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 30 * time.Second
)

// feedSyncer is the part of state.FeedStore the poller drives.
type feedSyncer interface {
	FetchPage(ctx context.Context, page int) ([]music.FeedEntry, error)
	RecordSync(err error)
	SyncStatus() state.SyncStatus
}

// StartPoller launches a background goroutine that refreshes the first feed
// page at a fixed cadence, backing off while the index is unreachable. It
// returns immediately.
func StartPoller(ctx context.Context, feed feedSyncer, interval time.Duration, logger *slog.Logger) {
	go pollLoop(ctx, feed, interval, logger)
}

func pollLoop(ctx context.Context, feed feedSyncer, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for {
		refresh(ctx, feed, logger)
		wait := calculateBackoff(feed.SyncStatus().ConsecutiveFailures, interval)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func refresh(ctx context.Context, feed feedSyncer, logger *slog.Logger) {
	if ctx.Err() != nil {
		return
	}
	_, err := feed.FetchPage(ctx, 0)
	feed.RecordSync(err)
	if err != nil {
		status := feed.SyncStatus()
		logger.Warn("feed poll failed", "error", err, "failures", status.ConsecutiveFailures, "offline", status.IsOffline())
	}
}

// calculateBackoff doubles the interval per consecutive failure, capped at
// maxBackoff. An interval already above the cap is used as is.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 || base >= maxBackoff {
		return base
	}
	wait := base
	for range failures {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}

package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ruo0o0/music-album/internal/music"
	"github.com/ruo0o0/music-album/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestCalculateBackoff_LargeBaseUnchanged(t *testing.T) {
	if got := calculateBackoff(3, time.Minute); got != time.Minute {
		t.Errorf("calculateBackoff(3, 1m) = %v, want 1m", got)
	}
}

type fakeFeed struct {
	mu     sync.Mutex
	errs   []error
	calls  int
	pages  []int
	status state.SyncStatus
}

func (f *fakeFeed) FetchPage(_ context.Context, page int) ([]music.FeedEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.pages = append(f.pages, page)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return nil, nil
}

func (f *fakeFeed) RecordSync(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.status.ConsecutiveFailures++
		f.status.LastError = err.Error()
		return
	}
	f.status = state.SyncStatus{}
}

func (f *fakeFeed) SyncStatus() state.SyncStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeFeed) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRefresh_RecordsOutcome(t *testing.T) {
	feed := &fakeFeed{errs: []error{errors.New("index down"), errors.New("index down")}}
	logger := slog.New(slog.DiscardHandler)

	refresh(context.Background(), feed, logger)
	refresh(context.Background(), feed, logger)
	if got := feed.SyncStatus(); !got.IsOffline() {
		t.Fatalf("SyncStatus = %+v, want offline after two failures", got)
	}

	refresh(context.Background(), feed, logger)
	if got := feed.SyncStatus(); got.ConsecutiveFailures != 0 || got.LastError != "" {
		t.Fatalf("SyncStatus = %+v, want reset after a success", got)
	}
	for i, p := range feed.pages {
		if p != 0 {
			t.Fatalf("pages[%d] = %d, want 0", i, p)
		}
	}
}

func TestRefresh_SkipsCancelledContext(t *testing.T) {
	feed := &fakeFeed{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	refresh(ctx, feed, slog.New(slog.DiscardHandler))
	if feed.callCount() != 0 {
		t.Fatalf("FetchPage called %d times, want 0", feed.callCount())
	}
}

func TestPollLoop_PollsUntilCancelled(t *testing.T) {
	feed := &fakeFeed{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pollLoop(ctx, feed, 5*time.Millisecond, nil)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for feed.callCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("poller made %d calls, want at least 3", feed.callCount())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("pollLoop did not return after cancel")
	}
}

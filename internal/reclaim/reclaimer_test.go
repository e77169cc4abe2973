package reclaim

import (
	"context"
	"testing"
	"time"

	"faceworker/internal/asynclog"
)

func TestRunPerformsPeriodicCollections(t *testing.T) {
	logger := asynclog.NewStdout(asynclog.LevelError, 100)
	r := New(10*time.Millisecond, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()
	r.Run(ctx)

	stats := r.GetStats()
	if stats.GCCount < 2 {
		t.Errorf("expected at least 2 collections in 55ms at a 10ms interval, got %d", stats.GCCount)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	logger := asynclog.NewStdout(asynclog.LevelError, 100)
	r := New(time.Hour, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return promptly after context cancellation")
	}
}

func TestGetStatsReflectsRuntimeMemStats(t *testing.T) {
	logger := asynclog.NewStdout(asynclog.LevelError, 100)
	r := New(time.Hour, logger)

	stats := r.GetStats()
	if stats.GCCount != 0 {
		t.Errorf("expected 0 collections before Run starts, got %d", stats.GCCount)
	}
}

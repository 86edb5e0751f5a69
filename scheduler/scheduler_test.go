package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNextSameDay(t *testing.T) {
	s := &DailyScheduler{Location: time.UTC}
	now := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	got := s.Next(now, 15, 0)
	want := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Next() = %s, want %s", got, want)
	}
}

func TestNextRollsOverToTomorrow(t *testing.T) {
	s := &DailyScheduler{Location: time.UTC}
	now := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	got := s.Next(now, 15, 0)
	want := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Next() = %s, want %s", got, want)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := &DailyScheduler{Location: time.UTC, now: time.Now}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	called := false
	hour := (time.Now().UTC().Hour() + 12) % 24
	err := s.Run(ctx, hour, 0, func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if called {
		t.Fatalf("job should not run before its time")
	}
}

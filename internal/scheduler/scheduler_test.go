package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

func TestNewIntervalPanicsOnZeroInterval(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("zero interval should panic at construction")
		}
	}()
	NewInterval(Options{}, nil, zerolog.Nop())
}

func TestIntervalRunFiresOnAdvance(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	s := NewInterval(Options{Interval: time.Minute}, clock, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticks := make(chan time.Time, 4)
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(ctx context.Context, tick time.Time) error {
			ticks <- tick
			return nil
		})
	}()

	clock.BlockUntil(1)
	clock.Advance(time.Minute)

	select {
	case tick := <-ticks:
		want := time.Date(2026, 3, 14, 12, 1, 0, 0, time.UTC)
		if !tick.Equal(want) {
			t.Fatalf("expected tick at %v, got %v", want, tick)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("Run should return the cancellation cause, got %v", err)
	}
}

func TestIntervalRunSurvivesTickError(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	s := NewInterval(Options{Interval: time.Minute}, clock, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(ctx context.Context, tick time.Time) error {
			calls <- struct{}{}
			return context.DeadlineExceeded
		})
	}()

	for i := 0; i < 2; i++ {
		clock.BlockUntil(1)
		clock.Advance(time.Minute)
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for tick %d", i+1)
		}
	}

	cancel()
	<-done
}

func TestNextTickAlignment(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 14, 12, 0, 17, 0, time.UTC))
	s := NewInterval(Options{Interval: time.Minute, AlignToStart: true}, clock, zerolog.Nop())

	next := s.nextTick(clock.Now())
	want := time.Date(2026, 3, 14, 12, 1, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("aligned tick should land on the minute boundary, got %v", next)
	}
}

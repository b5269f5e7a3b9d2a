// Package stats maintains the running daily low/high/current temperature.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"weather-telemetry/internal/observability"
	"weather-telemetry/internal/scheduler"
	"weather-telemetry/internal/storage"
)

// Aggregator folds readings into the day's stat row and periodically
// reconciles the incrementally-maintained extremes against the true MIN/MAX
// over the day's readings.
type Aggregator struct {
	store    storage.StatsStore
	location *time.Location
	logger   zerolog.Logger
}

// New constructs an Aggregator over the given store.
func New(store storage.StatsStore, loc *time.Location, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		store:    store,
		location: loc,
		logger:   logger.With().Str("component", "stats").Logger(),
	}
}

// OnReading folds one temperature into the stat row for capturedAt's local
// calendar date: low=min, high=max, current=value, with the first reading of
// a day seeding all three.
func (a *Aggregator) OnReading(ctx context.Context, capturedAt time.Time, value float64) error {
	day := a.dayOf(capturedAt)
	if err := a.store.UpsertDailyStat(ctx, day, value); err != nil {
		return fmt.Errorf("stat upsert for %s: %w", day.Format("2006-01-02"), err)
	}
	return nil
}

// Reconcile overwrites the day's low/high with the true extremes over its
// readings, correcting any write-ordering anomaly. Current is untouched: it
// always reflects the most recent ingest.
func (a *Aggregator) Reconcile(ctx context.Context, capturedAt time.Time) error {
	day := a.dayOf(capturedAt)
	start, end := scheduler.DayBounds(day, a.location)

	corrected, err := a.store.ReconcileDailyStat(ctx, day, start, end)
	if err != nil {
		return fmt.Errorf("stat reconcile for %s: %w", day.Format("2006-01-02"), err)
	}
	if corrected {
		observability.StatCorrections.Inc()
		a.logger.Debug().Time("day", day).Msg("reconciled diverged daily extremes")
	}
	return nil
}

func (a *Aggregator) dayOf(t time.Time) time.Time {
	local := t.In(a.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, a.location)
}

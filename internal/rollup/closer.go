// Package rollup closes calendar days into per-metric MAX/AVG/MIN rows and
// expires raw readings past the retention window.
package rollup

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"weather-telemetry/internal/observability"
	"weather-telemetry/internal/scheduler"
	"weather-telemetry/internal/storage"
)

// Store is the persistence surface the closer needs.
type Store interface {
	storage.ReadingStore
	storage.RollupStore
}

// Options tune the day-close procedure.
type Options struct {
	RetentionWindow time.Duration
	AdvisoryLockKey int64
}

// Closer runs the day-close transaction: compute the closed day's rollups,
// then permit expiry of raw readings older than the retention window.
type Closer struct {
	store    Store
	locker   storage.AdvisoryLocker
	opts     Options
	location *time.Location
	clock    clockwork.Clock
	logger   zerolog.Logger
}

// New constructs a Closer. locker may be nil when single-instance.
func New(store Store, locker storage.AdvisoryLocker, opts Options, loc *time.Location, clock clockwork.Clock, logger zerolog.Logger) *Closer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Closer{
		store:    store,
		locker:   locker,
		opts:     opts,
		location: loc,
		clock:    clock,
		logger:   logger.With().Str("component", "rollup").Logger(),
	}
}

// CloseDay computes and persists day's rollups, then prunes expired raw
// readings. Re-running for an already-closed day produces identical rows;
// writes are upserts keyed (day, metric).
func (c *Closer) CloseDay(ctx context.Context, day time.Time) error {
	if c.locker != nil && c.opts.AdvisoryLockKey != 0 {
		unlock, acquired, err := c.locker.TryAdvisoryLock(ctx, c.opts.AdvisoryLockKey)
		if err != nil {
			observability.RollupCloses.WithLabelValues("error").Inc()
			return fmt.Errorf("acquire rollup lock: %w", err)
		}
		if !acquired {
			c.logger.Info().Time("day", day).Msg("rollup lock held elsewhere; skipping")
			return nil
		}
		defer unlock()
	}

	if err := c.closeDay(ctx, day); err != nil {
		observability.RollupCloses.WithLabelValues("error").Inc()
		return err
	}

	if c.opts.RetentionWindow > 0 {
		cutoff := c.clock.Now().Add(-c.opts.RetentionWindow)
		pruned, err := c.store.DeleteReadingsBefore(ctx, cutoff)
		if err != nil {
			observability.RollupCloses.WithLabelValues("error").Inc()
			return fmt.Errorf("prune expired readings: %w", err)
		}
		if pruned > 0 {
			c.logger.Info().Int64("pruned", pruned).Time("cutoff", cutoff).Msg("expired raw readings")
		}
	}

	observability.RollupCloses.WithLabelValues("ok").Inc()
	return nil
}

// Recompute rebuilds one day's rollups from its surviving raw readings
// without pruning retention. Used by the rollup command.
func (c *Closer) Recompute(ctx context.Context, day time.Time) error {
	return c.closeDay(ctx, day)
}

func (c *Closer) closeDay(ctx context.Context, day time.Time) error {
	start, end := scheduler.DayBounds(day, c.location)
	readings, err := c.store.ListReadingsBetween(ctx, start, end)
	if err != nil {
		return fmt.Errorf("list readings for %s: %w", day.Format("2006-01-02"), err)
	}
	if len(readings) == 0 {
		c.logger.Info().Time("day", day).Msg("no readings to roll up")
		return nil
	}

	rollups := Compute(day, readings)
	for _, r := range rollups {
		if err := c.store.UpsertDailyRollup(ctx, r); err != nil {
			return fmt.Errorf("upsert rollup %s/%s: %w", day.Format("2006-01-02"), r.Metric, err)
		}
	}

	c.logger.Info().Time("day", day).Int("readings", len(readings)).Int("metrics", len(rollups)).Msg("day closed")
	return nil
}

// Compute derives one rollup per metric from the day's readings. A pure
// function of its input: re-running yields identical rows. Metrics with no
// valid value in any reading are omitted.
func Compute(day time.Time, readings []storage.ReadingRecord) []storage.DailyRollup {
	out := make([]storage.DailyRollup, 0, len(storage.RollupMetrics))
	for _, metric := range storage.RollupMetrics {
		var (
			max, min, sum float64
			n             int
		)
		for _, rec := range readings {
			v := rec.Metric(metric)
			if v == nil {
				continue
			}
			if n == 0 || *v > max {
				max = *v
			}
			if n == 0 || *v < min {
				min = *v
			}
			sum += *v
			n++
		}
		if n == 0 {
			continue
		}
		avg := sum / float64(n)
		maxV, minV := max, min
		out = append(out, storage.DailyRollup{
			Day:    day,
			Metric: metric,
			Max:    &maxV,
			Avg:    &avg,
			Min:    &minV,
		})
	}
	return out
}

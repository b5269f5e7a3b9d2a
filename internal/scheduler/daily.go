package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// DayFunc is invoked once per boundary with the station-local calendar day
// that just closed.
type DayFunc func(ctx context.Context, closedDay time.Time) error

// Daily fires at a fixed station-local wall-clock time every day. A firing
// that overlaps a still-running previous one is skipped, not queued; the
// day-close work is idempotent so a skipped or doubled trigger is harmless.
type Daily struct {
	hour     int
	minute   int
	location *time.Location
	clock    clockwork.Clock
	logger   zerolog.Logger
	running  atomic.Bool
}

// NewDaily constructs a Daily scheduler firing at hour:minute in loc.
func NewDaily(hour, minute int, loc *time.Location, clock clockwork.Clock, logger zerolog.Logger) *Daily {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Daily{
		hour:     hour,
		minute:   minute,
		location: loc,
		clock:    clock,
		logger:   logger.With().Str("component", "daily_scheduler").Logger(),
	}
}

// Run blocks, invoking fn at each daily boundary until ctx is cancelled.
func (d *Daily) Run(ctx context.Context, fn DayFunc) error {
	for {
		fireAt := NextFire(d.clock.Now(), d.hour, d.minute, d.location)
		d.logger.Debug().Time("fire_at", fireAt).Msg("waiting for daily boundary")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.clock.After(fireAt.Sub(d.clock.Now())):
		}

		if !d.running.CompareAndSwap(false, true) {
			d.logger.Warn().Time("fire_at", fireAt).Msg("previous day close still running; skipping")
			continue
		}

		closed := ClosedDay(fireAt, d.location)
		if err := fn(ctx, closed); err != nil {
			d.logger.Error().Err(err).Time("day", closed).Msg("day close failed")
		}
		d.running.Store(false)
	}
}

// NextFire returns the next hour:minute wall-clock instant in loc strictly
// after now.
func NextFire(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	fire := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !fire.After(now) {
		fire = fire.AddDate(0, 0, 1)
	}
	return fire
}

// ClosedDay returns the calendar day that a boundary firing at fireAt
// closes: the local day preceding the boundary.
func ClosedDay(fireAt time.Time, loc *time.Location) time.Time {
	local := fireAt.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, -1)
}

// DayBounds returns the [start, end) instants of day's local calendar date.
func DayBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	local := day.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

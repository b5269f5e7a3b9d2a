// Package service drives the ingest loop: fetch, decode, append, aggregate.
package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"weather-telemetry/internal/alerting"
	"weather-telemetry/internal/decoder"
	"weather-telemetry/internal/fetcher"
	"weather-telemetry/internal/observability"
	"weather-telemetry/internal/scheduler"
	"weather-telemetry/internal/schema"
	"weather-telemetry/internal/stats"
	"weather-telemetry/internal/storage"
)

// Options tune the ingest service.
type Options struct {
	GustThreshold float64
	AlertCooldown time.Duration
	AlertsEnabled bool
}

// Service orchestrates fetching, decoding, persistence, and alerting.
type Service struct {
	scheduler *scheduler.Interval
	fetcher   fetcher.RawFetcher
	table     *schema.Table
	readings  storage.ReadingStore
	stats     *stats.Aggregator
	notifier  alerting.Notifier
	clock     clockwork.Clock
	logger    zerolog.Logger
	opts      Options

	inFlight  atomic.Bool
	lastAlert time.Time
}

// New constructs the ingest service. readings, stats, and notifier may be
// nil; the corresponding step is skipped.
func New(sched *scheduler.Interval, raw fetcher.RawFetcher, table *schema.Table, readings storage.ReadingStore, agg *stats.Aggregator, notifier alerting.Notifier, clock clockwork.Clock, opts Options, logger zerolog.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		scheduler: sched,
		fetcher:   raw,
		table:     table,
		readings:  readings,
		stats:     agg,
		notifier:  notifier,
		clock:     clock,
		logger:    logger.With().Str("component", "ingest").Logger(),
		opts:      opts,
	}
}

// Run begins the periodic ingest loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.IngestOnce)
}

// IngestOnce executes a single fetch-decode-append cycle. A cycle that
// finds the previous one still in flight is suppressed, not queued. Any
// failure leaves prior state untouched: readers keep seeing the last known
// reading.
func (s *Service) IngestOnce(ctx context.Context, tick time.Time) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn().Time("tick", tick).Msg("previous cycle still in flight; suppressing tick")
		return nil
	}
	defer s.inFlight.Store(false)

	raw, err := s.fetcher.Fetch(ctx)
	if err != nil {
		observability.IngestCycles.WithLabelValues("fetch_error").Inc()
		return fmt.Errorf("cycle %s: %w", tick.Format(time.RFC3339), err)
	}

	capturedAt := s.clock.Now()
	reading, err := decoder.Decode(raw, s.table, capturedAt)
	if err != nil {
		observability.IngestCycles.WithLabelValues("decode_error").Inc()
		return fmt.Errorf("cycle %s: decode: %w", tick.Format(time.RFC3339), err)
	}
	if gaps := reading.Gaps(); gaps > 0 {
		observability.DecodeGaps.Add(float64(gaps))
		s.logger.Debug().Int("gaps", gaps).Str("schema", reading.SchemaVersion).Msg("packet decoded with gaps")
	}

	rec := RecordFromReading(reading)

	if s.readings != nil {
		if err := s.readings.InsertReading(ctx, rec); err != nil {
			observability.IngestCycles.WithLabelValues("store_error").Inc()
			return fmt.Errorf("cycle %s: %w", tick.Format(time.RFC3339), err)
		}
		observability.ReadingsAppended.Inc()
	}

	if s.stats != nil {
		// A packet whose temperature failed to parse updates nothing:
		// the stored current keeps its prior value rather than becoming
		// zero.
		if temp := rec.Temp; temp != nil {
			if err := s.stats.OnReading(ctx, capturedAt, *temp); err != nil {
				s.logger.Error().Err(err).Msg("daily stat update failed")
			}
		}
		if err := s.stats.Reconcile(ctx, capturedAt); err != nil {
			s.logger.Error().Err(err).Msg("daily stat reconciliation failed")
		}
	}

	observability.IngestCycles.WithLabelValues("ok").Inc()
	observability.LastIngestUnix.Set(float64(capturedAt.Unix()))

	s.logger.Info().
		Time("captured_at", capturedAt).
		Str("schema", reading.SchemaVersion).
		Msg("reading recorded")

	s.maybeAlert(ctx, rec)
	return nil
}

func (s *Service) maybeAlert(ctx context.Context, rec storage.ReadingRecord) {
	if !s.opts.AlertsEnabled || s.notifier == nil || s.opts.GustThreshold <= 0 {
		return
	}
	if rec.Gust == nil || *rec.Gust < s.opts.GustThreshold {
		return
	}
	if !s.lastAlert.IsZero() && s.clock.Now().Sub(s.lastAlert) < s.opts.AlertCooldown {
		return
	}

	note := alerting.Notification{
		CapturedAt: rec.CapturedAt,
		Gust:       *rec.Gust,
		Threshold:  s.opts.GustThreshold,
		WindSpeed:  rec.Wind,
		Temp:       rec.Temp,
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Error().Err(err).Msg("failed to dispatch storm alert")
		return
	}
	s.lastAlert = s.clock.Now()
}

// RecordFromReading projects the persisted metric columns out of a decoded
// packet. Field naming follows the active schema table; absent fields stay
// nil.
func RecordFromReading(r *decoder.Reading) storage.ReadingRecord {
	return storage.ReadingRecord{
		CapturedAt:    r.CapturedAt,
		SchemaVersion: r.SchemaVersion,
		Temp:          r.NullableFloat("out_temp"),
		Wind:          r.NullableFloat("wind_speed"),
		Gust:          r.NullableFloat("wind_gust"),
		Dir:           r.NullableFloat("wind_dir"),
		Humidity:      r.NullableFloat("out_hum"),
		Pressure:      r.NullableFloat("barometer"),
		Rain:          r.NullableFloat("day_rain"),
		UV:            r.NullableFloat("uv_raw"),
		Solar:         r.NullableFloat("radiation"),
	}
}

package rollup

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"weather-telemetry/internal/storage"
)

func f(v float64) *float64 { return &v }

func reading(at time.Time, temp, wind *float64) storage.ReadingRecord {
	return storage.ReadingRecord{CapturedAt: at, SchemaVersion: "clientraw/v1", Temp: temp, Wind: wind}
}

func TestComputeAggregates(t *testing.T) {
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	readings := []storage.ReadingRecord{
		reading(day.Add(1*time.Hour), f(4.0), f(2.0)),
		reading(day.Add(2*time.Hour), f(10.0), nil),
		reading(day.Add(3*time.Hour), f(-2.0), f(6.0)),
	}

	rollups := Compute(day, readings)

	byMetric := map[string]storage.DailyRollup{}
	for _, r := range rollups {
		byMetric[r.Metric] = r
	}

	temp, ok := byMetric[storage.MetricTemp]
	if !ok {
		t.Fatal("temp rollup should be present")
	}
	if *temp.Max != 10.0 || *temp.Min != -2.0 || *temp.Avg != 4.0 {
		t.Fatalf("temp aggregates wrong: max=%v avg=%v min=%v", *temp.Max, *temp.Avg, *temp.Min)
	}

	wind, ok := byMetric[storage.MetricWind]
	if !ok {
		t.Fatal("wind rollup should be present")
	}
	if *wind.Max != 6.0 || *wind.Min != 2.0 || *wind.Avg != 4.0 {
		t.Fatalf("wind aggregates should skip null readings: max=%v avg=%v min=%v", *wind.Max, *wind.Avg, *wind.Min)
	}

	if _, ok := byMetric[storage.MetricRain]; ok {
		t.Fatal("a metric with no valid value should be omitted")
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	readings := []storage.ReadingRecord{
		reading(day.Add(1*time.Hour), f(4.0), f(2.0)),
		reading(day.Add(2*time.Hour), f(10.0), f(3.5)),
	}

	first := Compute(day, readings)
	second := Compute(day, readings)

	if len(first) != len(second) {
		t.Fatalf("recomputation changed the rollup count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.Metric != b.Metric || *a.Max != *b.Max || *a.Avg != *b.Avg || *a.Min != *b.Min {
			t.Fatalf("recomputation diverged for %s", a.Metric)
		}
	}
}

func TestComputeEmptyDay(t *testing.T) {
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if rollups := Compute(day, nil); len(rollups) != 0 {
		t.Fatalf("empty day should produce no rollups, got %d", len(rollups))
	}
}

type fakeRollupStore struct {
	readings []storage.ReadingRecord
	upserts  []storage.DailyRollup
	pruned   []time.Time
}

func (s *fakeRollupStore) InsertReading(ctx context.Context, rec storage.ReadingRecord) error {
	s.readings = append(s.readings, rec)
	return nil
}

func (s *fakeRollupStore) ListReadingsBetween(ctx context.Context, from, to time.Time) ([]storage.ReadingRecord, error) {
	out := make([]storage.ReadingRecord, 0, len(s.readings))
	for _, rec := range s.readings {
		if !rec.CapturedAt.Before(from) && rec.CapturedAt.Before(to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeRollupStore) LatestReading(ctx context.Context) (storage.ReadingRecord, error) {
	if len(s.readings) == 0 {
		return storage.ReadingRecord{}, storage.ErrNoReadings
	}
	return s.readings[len(s.readings)-1], nil
}

func (s *fakeRollupStore) DeleteReadingsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.pruned = append(s.pruned, cutoff)
	return 0, nil
}

func (s *fakeRollupStore) UpsertDailyRollup(ctx context.Context, rollup storage.DailyRollup) error {
	s.upserts = append(s.upserts, rollup)
	return nil
}

func (s *fakeRollupStore) ListRollupRange(ctx context.Context, metric string, from, to time.Time) ([]storage.RollupRangeRow, error) {
	return nil, nil
}

func (s *fakeRollupStore) ListRollupRangeAll(ctx context.Context, metric string) ([]storage.RollupRangeRow, error) {
	return nil, nil
}

func TestCloseDayWritesRollupsAndPrunes(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, loc)
	store := &fakeRollupStore{
		readings: []storage.ReadingRecord{
			reading(day.Add(1*time.Hour), f(4.0), f(2.0)),
			reading(day.Add(23*time.Hour), f(8.0), f(3.0)),
			// Belongs to the next day; must not contribute.
			reading(day.Add(25*time.Hour), f(99.0), nil),
		},
	}

	clock := clockwork.NewFakeClockAt(day.AddDate(0, 0, 1).Add(5 * time.Minute))
	closer := New(store, nil, Options{RetentionWindow: 400 * 24 * time.Hour}, loc, clock, zerolog.Nop())

	if err := closer.CloseDay(context.Background(), day); err != nil {
		t.Fatalf("CloseDay: %v", err)
	}

	var temp *storage.DailyRollup
	for i := range store.upserts {
		if store.upserts[i].Metric == storage.MetricTemp {
			temp = &store.upserts[i]
		}
	}
	if temp == nil {
		t.Fatal("temp rollup should have been written")
	}
	if *temp.Max != 8.0 {
		t.Fatalf("next-day reading leaked into the closed day: max=%v", *temp.Max)
	}

	if len(store.pruned) != 1 {
		t.Fatalf("retention pruning should run once, got %d", len(store.pruned))
	}
	wantCutoff := clock.Now().Add(-400 * 24 * time.Hour)
	if !store.pruned[0].Equal(wantCutoff) {
		t.Fatalf("prune cutoff should be now minus the window, got %v", store.pruned[0])
	}
}

func TestCloseDayNoReadingsIsNoop(t *testing.T) {
	store := &fakeRollupStore{}
	closer := New(store, nil, Options{}, time.UTC, nil, zerolog.Nop())

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if err := closer.CloseDay(context.Background(), day); err != nil {
		t.Fatalf("CloseDay on an empty day should succeed: %v", err)
	}
	if len(store.upserts) != 0 {
		t.Fatal("no rollups should be written for an empty day")
	}
}

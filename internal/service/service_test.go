package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"weather-telemetry/internal/alerting"
	"weather-telemetry/internal/fetcher"
	"weather-telemetry/internal/schema"
	"weather-telemetry/internal/stats"
	"weather-telemetry/internal/storage"
)

type fakeReadingStore struct {
	inserted  []storage.ReadingRecord
	insertErr error
}

func (s *fakeReadingStore) InsertReading(ctx context.Context, rec storage.ReadingRecord) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, rec)
	return nil
}

func (s *fakeReadingStore) ListReadingsBetween(ctx context.Context, from, to time.Time) ([]storage.ReadingRecord, error) {
	return nil, nil
}

func (s *fakeReadingStore) LatestReading(ctx context.Context) (storage.ReadingRecord, error) {
	if len(s.inserted) == 0 {
		return storage.ReadingRecord{}, storage.ErrNoReadings
	}
	return s.inserted[len(s.inserted)-1], nil
}

func (s *fakeReadingStore) DeleteReadingsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeStatsStore struct {
	upserts    []float64
	reconciles int
}

func (s *fakeStatsStore) UpsertDailyStat(ctx context.Context, day time.Time, value float64) error {
	s.upserts = append(s.upserts, value)
	return nil
}

func (s *fakeStatsStore) ReconcileDailyStat(ctx context.Context, day, dayStart, dayEnd time.Time) (bool, error) {
	s.reconciles++
	return false, nil
}

func (s *fakeStatsStore) GetDailyStat(ctx context.Context, day time.Time) (storage.DailyStat, bool, error) {
	return storage.DailyStat{}, false, nil
}

type fakeNotifier struct {
	notes []alerting.Notification
}

func (n *fakeNotifier) Notify(ctx context.Context, note alerting.Notification) error {
	n.notes = append(n.notes, note)
	return nil
}

func mustTable(t *testing.T) *schema.Table {
	t.Helper()
	table, err := schema.Lookup("clientraw/v1")
	if err != nil {
		t.Fatalf("lookup schema: %v", err)
	}
	return table
}

func TestIngestOncePersistsDecodedReading(t *testing.T) {
	store := &fakeReadingStore{}
	statsStore := &fakeStatsStore{}
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	raw := &fetcher.Static{Packet: "12345 3.2 7.5 180 21.4 55 1013.2 0.0 310 1.2"}

	svc := New(nil, raw, mustTable(t), store, stats.New(statsStore, time.UTC, zerolog.Nop()), nil, clock, Options{}, zerolog.Nop())

	if err := svc.IngestOnce(context.Background(), clock.Now()); err != nil {
		t.Fatalf("IngestOnce: %v", err)
	}

	if len(store.inserted) != 1 {
		t.Fatalf("expected one persisted reading, got %d", len(store.inserted))
	}
	rec := store.inserted[0]
	if rec.Wind == nil || *rec.Wind != 3.2 {
		t.Fatalf("wind should persist as 3.2, got %v", rec.Wind)
	}
	if rec.Temp == nil || *rec.Temp != 21.4 {
		t.Fatalf("temp should persist as 21.4, got %v", rec.Temp)
	}
	if !rec.CapturedAt.Equal(clock.Now()) {
		t.Fatalf("captured_at should be the ingest clock time, got %v", rec.CapturedAt)
	}

	if len(statsStore.upserts) != 1 || statsStore.upserts[0] != 21.4 {
		t.Fatalf("temperature should fold into the daily stat, got %v", statsStore.upserts)
	}
	if statsStore.reconciles != 1 {
		t.Fatalf("each cycle should reconcile once, got %d", statsStore.reconciles)
	}
}

func TestIngestOnceFetchFailureSkipsCycle(t *testing.T) {
	store := &fakeReadingStore{}
	raw := &fetcher.Static{Err: errors.New("upstream down")}

	svc := New(nil, raw, mustTable(t), store, nil, nil, nil, Options{}, zerolog.Nop())

	if err := svc.IngestOnce(context.Background(), time.Now()); err == nil {
		t.Fatal("fetch failure should surface as a cycle error")
	}
	if len(store.inserted) != 0 {
		t.Fatal("a failed cycle must leave stored state untouched")
	}
}

func TestIngestOnceNullTempSkipsStatUpdate(t *testing.T) {
	store := &fakeReadingStore{}
	statsStore := &fakeStatsStore{}
	// Temperature token is the -100 sentinel; wind still decodes.
	raw := &fetcher.Static{Packet: "12345 3.2 7.5 180 -100 55"}

	svc := New(nil, raw, mustTable(t), store, stats.New(statsStore, time.UTC, zerolog.Nop()), nil, nil, Options{}, zerolog.Nop())

	if err := svc.IngestOnce(context.Background(), time.Now()); err != nil {
		t.Fatalf("IngestOnce: %v", err)
	}

	if len(store.inserted) != 1 {
		t.Fatal("reading with a temperature gap should still be appended")
	}
	if store.inserted[0].Temp != nil {
		t.Fatal("sentinel temperature must persist as null")
	}
	if len(statsStore.upserts) != 0 {
		t.Fatal("a null temperature must not touch the daily stat; prior current stays")
	}
	if statsStore.reconciles != 1 {
		t.Fatal("reconciliation still runs on gap cycles")
	}
}

func TestIngestOnceStoreFailurePropagates(t *testing.T) {
	store := &fakeReadingStore{insertErr: errors.New("db down")}
	raw := &fetcher.Static{Packet: "12345 3.2"}

	svc := New(nil, raw, mustTable(t), store, nil, nil, nil, Options{}, zerolog.Nop())

	if err := svc.IngestOnce(context.Background(), time.Now()); err == nil {
		t.Fatal("storage failure should surface as a cycle error")
	}
}

func TestMaybeAlertThresholdAndCooldown(t *testing.T) {
	notifier := &fakeNotifier{}
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	raw := &fetcher.Static{Packet: "12345 18.0 24.3 180 4.0 55"}

	svc := New(nil, raw, mustTable(t), nil, nil, notifier, clock, Options{
		GustThreshold: 20,
		AlertCooldown: 30 * time.Minute,
		AlertsEnabled: true,
	}, zerolog.Nop())

	if err := svc.IngestOnce(context.Background(), clock.Now()); err != nil {
		t.Fatalf("IngestOnce: %v", err)
	}
	if len(notifier.notes) != 1 {
		t.Fatalf("gust above threshold should alert once, got %d", len(notifier.notes))
	}
	if notifier.notes[0].Gust != 24.3 {
		t.Fatalf("alert should carry the gust value, got %v", notifier.notes[0].Gust)
	}

	// Second burst inside the cooldown window stays silent.
	clock.Advance(10 * time.Minute)
	if err := svc.IngestOnce(context.Background(), clock.Now()); err != nil {
		t.Fatalf("IngestOnce: %v", err)
	}
	if len(notifier.notes) != 1 {
		t.Fatalf("cooldown should suppress the repeat alert, got %d", len(notifier.notes))
	}

	// Past the cooldown it fires again.
	clock.Advance(25 * time.Minute)
	if err := svc.IngestOnce(context.Background(), clock.Now()); err != nil {
		t.Fatalf("IngestOnce: %v", err)
	}
	if len(notifier.notes) != 2 {
		t.Fatalf("alert should fire again after the cooldown, got %d", len(notifier.notes))
	}
}

func TestMaybeAlertBelowThresholdSilent(t *testing.T) {
	notifier := &fakeNotifier{}
	raw := &fetcher.Static{Packet: "12345 3.0 12.0 180 4.0 55"}

	svc := New(nil, raw, mustTable(t), nil, nil, notifier, nil, Options{
		GustThreshold: 20,
		AlertsEnabled: true,
	}, zerolog.Nop())

	if err := svc.IngestOnce(context.Background(), time.Now()); err != nil {
		t.Fatalf("IngestOnce: %v", err)
	}
	if len(notifier.notes) != 0 {
		t.Fatal("gust below threshold must not alert")
	}
}

func TestRecordFromReadingMapsSchemaFields(t *testing.T) {
	raw := "12345 3.2 7.5 180 21.4 55 1013.2 0.4 310 1.2"
	store := &fakeReadingStore{}
	svc := New(nil, &fetcher.Static{Packet: raw}, mustTable(t), store, nil, nil, nil, Options{}, zerolog.Nop())
	if err := svc.IngestOnce(context.Background(), time.Now()); err != nil {
		t.Fatalf("IngestOnce: %v", err)
	}

	rec := store.inserted[0]
	checks := map[string]*float64{
		"wind":     rec.Wind,
		"gust":     rec.Gust,
		"dir":      rec.Dir,
		"temp":     rec.Temp,
		"humidity": rec.Humidity,
		"pressure": rec.Pressure,
		"rain":     rec.Rain,
		"solar":    rec.Solar,
		"uv":       rec.UV,
	}
	want := map[string]float64{
		"wind": 3.2, "gust": 7.5, "dir": 180, "temp": 21.4,
		"humidity": 55, "pressure": 1013.2, "rain": 0.4, "solar": 310, "uv": 1.2,
	}
	for name, got := range checks {
		if got == nil {
			t.Fatalf("%s should be present", name)
		}
		if *got != want[name] {
			t.Fatalf("%s = %v, want %v", name, *got, want[name])
		}
	}
}

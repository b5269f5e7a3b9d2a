package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-telemetry/internal/fetcher"
	"weather-telemetry/internal/schema"
	"weather-telemetry/internal/storage"
)

func f(v float64) *float64 { return &v }

type fakeStores struct {
	latest    *storage.ReadingRecord
	readings  []storage.ReadingRecord
	stat      *storage.DailyStat
	rangeRows []storage.RollupRangeRow
	failLists bool
}

func (s *fakeStores) InsertReading(ctx context.Context, rec storage.ReadingRecord) error {
	return nil
}

func (s *fakeStores) ListReadingsBetween(ctx context.Context, from, to time.Time) ([]storage.ReadingRecord, error) {
	if s.failLists {
		return nil, errors.New("db down")
	}
	return s.readings, nil
}

func (s *fakeStores) LatestReading(ctx context.Context) (storage.ReadingRecord, error) {
	if s.latest == nil {
		return storage.ReadingRecord{}, storage.ErrNoReadings
	}
	return *s.latest, nil
}

func (s *fakeStores) DeleteReadingsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (s *fakeStores) UpsertDailyStat(ctx context.Context, day time.Time, value float64) error {
	return nil
}

func (s *fakeStores) ReconcileDailyStat(ctx context.Context, day, dayStart, dayEnd time.Time) (bool, error) {
	return false, nil
}

func (s *fakeStores) GetDailyStat(ctx context.Context, day time.Time) (storage.DailyStat, bool, error) {
	if s.stat == nil {
		return storage.DailyStat{}, false, nil
	}
	return *s.stat, true, nil
}

func (s *fakeStores) UpsertDailyRollup(ctx context.Context, rollup storage.DailyRollup) error {
	return nil
}

func (s *fakeStores) ListRollupRange(ctx context.Context, metric string, from, to time.Time) ([]storage.RollupRangeRow, error) {
	if s.failLists {
		return nil, errors.New("db down")
	}
	return s.rangeRows, nil
}

func (s *fakeStores) ListRollupRangeAll(ctx context.Context, metric string) ([]storage.RollupRangeRow, error) {
	if s.failLists {
		return nil, errors.New("db down")
	}
	return s.rangeRows, nil
}

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, stores *fakeStores, live fetcher.RawFetcher) *Server {
	t.Helper()
	table, err := schema.Lookup("clientraw/v1")
	require.NoError(t, err)
	clock := clockwork.NewFakeClockAt(testNow)
	return NewServer(Options{Addr: ":0"}, stores, live, table, time.UTC, clock, zerolog.Nop())
}

func doJSON(t *testing.T, srv *Server, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestCurrentNoData(t *testing.T) {
	srv := newTestServer(t, &fakeStores{}, nil)

	var resp map[string]any
	rec := doJSON(t, srv, "/api/weather/current", &resp)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["noData"])
}

func TestCurrentReturnsLatestReading(t *testing.T) {
	stores := &fakeStores{
		latest: &storage.ReadingRecord{
			CapturedAt: testNow.Add(-time.Minute),
			Temp:       f(21.4),
			Wind:       f(3.2),
		},
	}
	srv := newTestServer(t, stores, nil)

	var resp map[string]any
	rec := doJSON(t, srv, "/api/weather/current", &resp)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 21.4, resp["temp"])
	assert.Equal(t, 3.2, resp["wind"])
	assert.Nil(t, resp["gust"], "missing metric should serialize as null")
	assert.Nil(t, resp["noData"])
}

func TestHistoryServesTodaySeries(t *testing.T) {
	stores := &fakeStores{
		readings: []storage.ReadingRecord{
			{CapturedAt: testNow.Add(-2 * time.Hour), Temp: f(5.0), Wind: f(2.0)},
			{CapturedAt: testNow.Add(-time.Hour), Temp: f(7.0), Wind: nil},
		},
	}
	srv := newTestServer(t, stores, nil)

	var resp struct {
		TempHistory []struct {
			Time  string   `json:"time"`
			TS    int64    `json:"ts"`
			Value *float64 `json:"value"`
		} `json:"tempHistory"`
		WindHistory []struct {
			Value *float64 `json:"value"`
		} `json:"windHistory"`
	}
	rec := doJSON(t, srv, "/api/weather/history", &resp)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.TempHistory, 2)
	assert.Equal(t, "10:00", resp.TempHistory[0].Time)
	assert.Equal(t, testNow.Add(-2*time.Hour).UnixMilli(), resp.TempHistory[0].TS)
	require.Len(t, resp.WindHistory, 2)
	assert.Nil(t, resp.WindHistory[1].Value, "decode gap should serialize as null, not zero")
}

func TestStatsPrefersLiveCurrent(t *testing.T) {
	stores := &fakeStores{
		stat: &storage.DailyStat{Low: f(-1.2), High: f(9.1), Current: f(7.0)},
	}
	live := &fetcher.Static{Packet: "12345 3.2 7.5 180 21.4 55"}
	srv := newTestServer(t, stores, live)

	var resp map[string]*float64
	rec := doJSON(t, srv, "/api/weather/stats", &resp)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp["current"])
	assert.Equal(t, 21.4, *resp["current"], "current should come from the live feed")
	assert.Equal(t, -1.2, *resp["low"], "low always comes from storage")
	assert.Equal(t, 9.1, *resp["high"], "high always comes from storage")
}

func TestStatsFallsBackToStoredCurrent(t *testing.T) {
	stores := &fakeStores{
		stat: &storage.DailyStat{Low: f(-1.2), High: f(9.1), Current: f(7.0)},
	}
	live := &fetcher.Static{Err: errors.New("upstream down")}
	srv := newTestServer(t, stores, live)

	var resp map[string]*float64
	rec := doJSON(t, srv, "/api/weather/stats", &resp)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp["current"])
	assert.Equal(t, 7.0, *resp["current"], "live failure should fall back to the stored current")
}

func TestDailyRangeCompletesWindow(t *testing.T) {
	// Only two of the seven requested dates have rollups.
	from := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	stores := &fakeStores{
		rangeRows: []storage.RollupRangeRow{
			{Day: from.AddDate(0, 0, 1), Max: f(8.0), Avg: f(4.0), Min: f(1.0)},
			{Day: from.AddDate(0, 0, 4), Max: f(6.0), Avg: f(3.0), Min: f(0.5)},
		},
	}
	srv := newTestServer(t, stores, nil)

	var resp []struct {
		Date string   `json:"date"`
		Max  *float64 `json:"max"`
		Avg  *float64 `json:"avg"`
		Min  *float64 `json:"min"`
	}
	rec := doJSON(t, srv, "/api/weather/daily-range?metric=temp&days=7", &resp)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp, 7, "a 7-day window must always yield 7 rows")

	for i, row := range resp {
		assert.Equal(t, from.AddDate(0, 0, i).Format("2006-01-02"), row.Date, "rows must be date ordered")
	}
	assert.Nil(t, resp[0].Max, "dates without rollups carry nulls")
	require.NotNil(t, resp[1].Max)
	assert.Equal(t, 8.0, *resp[1].Max)
	require.NotNil(t, resp[4].Avg)
	assert.Equal(t, 3.0, *resp[4].Avg)
}

func TestDailyRangeRejectsUnknownMetric(t *testing.T) {
	srv := newTestServer(t, &fakeStores{}, nil)

	rec := doJSON(t, srv, "/api/weather/daily-range?metric=bogus&days=7", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDailyRangeRejectsBadDays(t *testing.T) {
	srv := newTestServer(t, &fakeStores{}, nil)

	rec := doJSON(t, srv, "/api/weather/daily-range?metric=temp&days=-3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRawProxiesUpstream(t *testing.T) {
	live := &fetcher.Static{Packet: "12345 3.2 7.5"}
	srv := newTestServer(t, &fakeStores{}, live)

	rec := doJSON(t, srv, "/api/weather/raw", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345 3.2 7.5", rec.Body.String())
}

func TestRawUpstreamFailure(t *testing.T) {
	live := &fetcher.Static{Err: errors.New("upstream down")}
	srv := newTestServer(t, &fakeStores{}, live)

	rec := doJSON(t, srv, "/api/weather/raw", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeStores{}, nil)

	var resp map[string]string
	rec := doJSON(t, srv, "/healthz", &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", resp["status"])
}

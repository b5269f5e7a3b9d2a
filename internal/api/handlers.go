package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"weather-telemetry/internal/decoder"
	"weather-telemetry/internal/fetcher"
	"weather-telemetry/internal/scheduler"
	"weather-telemetry/internal/schema"
	"weather-telemetry/internal/storage"
)

// liveTimeout bounds the raw-packet fetch performed inside a request.
const liveTimeout = 5 * time.Second

// Handlers implement the query endpoints.
type Handlers struct {
	stores   Stores
	live     fetcher.RawFetcher
	table    *schema.Table
	location *time.Location
	clock    clockwork.Clock
	logger   zerolog.Logger
}

// currentResponse is the latest decoded reading.
type currentResponse struct {
	NoData     bool     `json:"noData,omitempty"`
	CapturedAt string   `json:"capturedAt,omitempty"`
	Temp       *float64 `json:"temp"`
	Wind       *float64 `json:"wind"`
	Gust       *float64 `json:"gust"`
	Dir        *float64 `json:"dir"`
	Humidity   *float64 `json:"humidity"`
	Pressure   *float64 `json:"pressure"`
	Rain       *float64 `json:"rain"`
	UV         *float64 `json:"uv"`
	Solar      *float64 `json:"solar"`
}

// Current serves the latest successfully decoded reading, or an explicit
// no-data marker if none has ever arrived.
func (h *Handlers) Current(w http.ResponseWriter, r *http.Request) {
	rec, err := h.stores.LatestReading(r.Context())
	if errors.Is(err, storage.ErrNoReadings) {
		respondJSON(w, http.StatusOK, currentResponse{NoData: true})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("latest reading query failed")
		respondError(w, http.StatusInternalServerError, "failed to load current reading")
		return
	}

	respondJSON(w, http.StatusOK, currentResponse{
		CapturedAt: rec.CapturedAt.In(h.location).Format(time.RFC3339),
		Temp:       rec.Temp,
		Wind:       rec.Wind,
		Gust:       rec.Gust,
		Dir:        rec.Dir,
		Humidity:   rec.Humidity,
		Pressure:   rec.Pressure,
		Rain:       rec.Rain,
		UV:         rec.UV,
		Solar:      rec.Solar,
	})
}

type historyPoint struct {
	Time  string   `json:"time"`
	TS    int64    `json:"ts"`
	Value *float64 `json:"value"`
}

type historyResponse struct {
	WindHistory     []historyPoint `json:"windHistory"`
	TempHistory     []historyPoint `json:"tempHistory"`
	PressureHistory []historyPoint `json:"pressureHistory"`
	RainHistory     []historyPoint `json:"rainHistory"`
}

// History serves per-metric series for the current local calendar date.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	now := h.clock.Now().In(h.location)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.location)
	start, end := scheduler.DayBounds(day, h.location)

	readings, err := h.stores.ListReadingsBetween(r.Context(), start, end)
	if err != nil {
		h.logger.Error().Err(err).Msg("today history query failed")
		respondError(w, http.StatusInternalServerError, "failed to load today's history")
		return
	}

	resp := historyResponse{
		WindHistory:     historyFor(readings, storage.MetricWind, h.location),
		TempHistory:     historyFor(readings, storage.MetricTemp, h.location),
		PressureHistory: historyFor(readings, storage.MetricPressure, h.location),
		RainHistory:     historyFor(readings, storage.MetricRain, h.location),
	}
	respondJSON(w, http.StatusOK, resp)
}

func historyFor(readings []storage.ReadingRecord, metric string, loc *time.Location) []historyPoint {
	points := make([]historyPoint, 0, len(readings))
	for _, rec := range readings {
		local := rec.CapturedAt.In(loc)
		points = append(points, historyPoint{
			Time:  local.Format("15:04"),
			TS:    rec.CapturedAt.UnixMilli(),
			Value: rec.Metric(metric),
		})
	}
	return points
}

type statsResponse struct {
	Low     *float64 `json:"low"`
	High    *float64 `json:"high"`
	Current *float64 `json:"current"`
}

// Stats serves today's low/high/current. Low and high always come from
// storage; current prefers the live feed and falls back to the stored value
// when the feed is unavailable or the field failed to decode.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	liveCurrent := h.liveTemp(r.Context())

	now := h.clock.Now().In(h.location)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.location)

	stat, found, err := h.stores.GetDailyStat(r.Context(), day)
	if err != nil {
		h.logger.Error().Err(err).Msg("daily stat query failed")
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	resp := statsResponse{Current: liveCurrent}
	if found {
		resp.Low = stat.Low
		resp.High = stat.High
		if resp.Current == nil {
			resp.Current = stat.Current
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// liveTemp fetches and decodes the current packet's temperature. Returns
// nil on any failure; the caller falls back to storage.
func (h *Handlers) liveTemp(ctx context.Context) *float64 {
	if h.live == nil || h.table == nil {
		return nil
	}
	liveCtx, cancel := context.WithTimeout(ctx, liveTimeout)
	defer cancel()

	raw, err := h.live.Fetch(liveCtx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("live fetch for current temperature failed")
		return nil
	}
	reading, err := decoder.Decode(raw, h.table, h.clock.Now())
	if err != nil {
		h.logger.Warn().Err(err).Msg("live decode for current temperature failed")
		return nil
	}
	return reading.NullableFloat("out_temp")
}

type dailyRangeRow struct {
	Date string   `json:"date"`
	Max  *float64 `json:"max"`
	Avg  *float64 `json:"avg"`
	Min  *float64 `json:"min"`
}

// DailyRange serves ordered closed-day rollups for one metric. A requested
// window of N days always yields N date-ordered rows; dates missing the
// metric carry nulls rather than being dropped.
func (h *Handlers) DailyRange(w http.ResponseWriter, r *http.Request) {
	metric := r.URL.Query().Get("metric")
	if !validMetric(metric) {
		respondError(w, http.StatusBadRequest, "unknown metric")
		return
	}

	daysParam := r.URL.Query().Get("days")
	if daysParam == "" || daysParam == "all" {
		rows, err := h.stores.ListRollupRangeAll(r.Context(), metric)
		if err != nil {
			h.logger.Error().Err(err).Str("metric", metric).Msg("rollup range query failed")
			respondError(w, http.StatusInternalServerError, "failed to load daily range")
			return
		}
		respondJSON(w, http.StatusOK, rollupRows(rows, h.location))
		return
	}

	days, err := strconv.Atoi(daysParam)
	if err != nil || days <= 0 {
		respondError(w, http.StatusBadRequest, "days must be a positive integer or 'all'")
		return
	}

	now := h.clock.Now().In(h.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.location)
	from := today.AddDate(0, 0, -days)

	rows, err := h.stores.ListRollupRange(r.Context(), metric, from, today)
	if err != nil {
		h.logger.Error().Err(err).Str("metric", metric).Msg("rollup range query failed")
		respondError(w, http.StatusInternalServerError, "failed to load daily range")
		return
	}

	respondJSON(w, http.StatusOK, completeWindow(rows, from, days, h.location))
}

func validMetric(metric string) bool {
	for _, m := range storage.RollupMetrics {
		if m == metric {
			return true
		}
	}
	return false
}

func rollupRows(rows []storage.RollupRangeRow, loc *time.Location) []dailyRangeRow {
	out := make([]dailyRangeRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, dailyRangeRow{
			Date: row.Day.In(loc).Format("2006-01-02"),
			Max:  row.Max,
			Avg:  row.Avg,
			Min:  row.Min,
		})
	}
	return out
}

// completeWindow expands store rows to one row per calendar date in the
// window, nulls where a date has no rollup at all.
func completeWindow(rows []storage.RollupRangeRow, from time.Time, days int, loc *time.Location) []dailyRangeRow {
	byDate := make(map[string]storage.RollupRangeRow, len(rows))
	for _, row := range rows {
		byDate[row.Day.In(loc).Format("2006-01-02")] = row
	}

	out := make([]dailyRangeRow, 0, days)
	for i := 0; i < days; i++ {
		date := from.AddDate(0, 0, i).Format("2006-01-02")
		row := dailyRangeRow{Date: date}
		if stored, ok := byDate[date]; ok {
			row.Max = stored.Max
			row.Avg = stored.Avg
			row.Min = stored.Min
		}
		out = append(out, row)
	}
	return out
}

// Raw proxies the upstream packet unmodified, for debugging schema drift.
func (h *Handlers) Raw(w http.ResponseWriter, r *http.Request) {
	if h.live == nil {
		respondError(w, http.StatusServiceUnavailable, "live feed not configured")
		return
	}
	liveCtx, cancel := context.WithTimeout(r.Context(), liveTimeout)
	defer cancel()

	raw, err := h.live.Fetch(liveCtx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("raw proxy fetch failed")
		respondError(w, http.StatusBadGateway, "unable to fetch raw weather data")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(raw))
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

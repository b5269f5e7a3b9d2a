package api

import (
	"math"
	"net/http"
	"time"

	"weather-telemetry/internal/resample"
	"weather-telemetry/internal/scheduler"
	"weather-telemetry/internal/storage"
)

type seriesResponse struct {
	Metric  string        `json:"metric"`
	Range   string        `json:"range"`
	Smooth  string        `json:"smooth"`
	Columns []string      `json:"columns"`
	Points  []seriesPoint `json:"points"`
	Ticks   []int64       `json:"ticks"`
	YDomain [2]float64    `json:"yDomain"`
}

type seriesPoint struct {
	TS     int64      `json:"ts"`
	Values []*float64 `json:"values"`
}

// Series serves a render-ready resampled series: sanitized, decimated,
// smoothed, with tick placement and Y domain chosen for the range. Any
// failure loading the underlying data degrades to an empty series, never
// stale data mixed with fresh.
func (h *Handlers) Series(w http.ResponseWriter, r *http.Request) {
	metric := r.URL.Query().Get("metric")
	if !validMetric(metric) {
		respondError(w, http.StatusBadRequest, "unknown metric")
		return
	}
	rangeKey := resample.ParseRange(r.URL.Query().Get("range"))
	level := resample.ParseLevel(r.URL.Query().Get("smooth"))

	var (
		points  []resample.Point
		columns []string
	)
	if rangeKey == resample.RangeToday {
		columns = []string{"value"}
		points = h.todayPoints(r, metric)
	} else {
		columns = []string{"max", "avg", "min"}
		points = h.rollupPoints(r, metric, rangeKey)
	}

	points = resample.Sanitize(points)
	points = resample.Decimate(points, resample.MaxPoints)
	points = resample.Smooth(points, rangeKey, level)

	lo, hi := resample.YDomain(metric, points)
	resp := seriesResponse{
		Metric:  metric,
		Range:   string(rangeKey),
		Smooth:  string(level),
		Columns: columns,
		Points:  encodePoints(points),
		Ticks:   resample.Ticks(points, rangeKey, h.location),
		YDomain: [2]float64{lo, hi},
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) todayPoints(r *http.Request, metric string) []resample.Point {
	now := h.clock.Now().In(h.location)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.location)
	start, end := scheduler.DayBounds(day, h.location)

	readings, err := h.stores.ListReadingsBetween(r.Context(), start, end)
	if err != nil {
		h.logger.Error().Err(err).Str("metric", metric).Msg("series source query failed")
		return nil
	}

	points := make([]resample.Point, 0, len(readings))
	for _, rec := range readings {
		points = append(points, resample.Point{
			TS:     rec.CapturedAt.UnixMilli(),
			Values: []float64{nullable(rec.Metric(metric))},
		})
	}
	return points
}

func (h *Handlers) rollupPoints(r *http.Request, metric string, rangeKey resample.Range) []resample.Point {
	var (
		rows []storage.RollupRangeRow
		err  error
	)
	if days, bounded := rangeKey.Days(); bounded {
		now := h.clock.Now().In(h.location)
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.location)
		rows, err = h.stores.ListRollupRange(r.Context(), metric, today.AddDate(0, 0, -days), today)
	} else {
		rows, err = h.stores.ListRollupRangeAll(r.Context(), metric)
	}
	if err != nil {
		h.logger.Error().Err(err).Str("metric", metric).Msg("series source query failed")
		return nil
	}

	points := make([]resample.Point, 0, len(rows))
	for _, row := range rows {
		local := row.Day.In(h.location)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, h.location)
		points = append(points, resample.Point{
			TS:     day.UnixMilli(),
			Values: []float64{nullable(row.Max), nullable(row.Avg), nullable(row.Min)},
		})
	}
	return points
}

func nullable(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func encodePoints(points []resample.Point) []seriesPoint {
	out := make([]seriesPoint, 0, len(points))
	for _, p := range points {
		values := make([]*float64, len(p.Values))
		for i, v := range p.Values {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				value := v
				values[i] = &value
			}
		}
		out = append(out, seriesPoint{TS: p.TS, Values: values})
	}
	return out
}

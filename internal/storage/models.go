package storage

import (
	"time"
)

// ReadingRecord is one persisted observation. Nil pointers are decode gaps:
// the field carried no value this cycle, which is distinct from zero.
type ReadingRecord struct {
	CapturedAt    time.Time
	SchemaVersion string
	Temp          *float64
	Wind          *float64
	Gust          *float64
	Dir           *float64
	Humidity      *float64
	Pressure      *float64
	Rain          *float64
	UV            *float64
	Solar         *float64
	CreatedAt     time.Time
}

// Metric returns a stored metric by its API name.
func (r ReadingRecord) Metric(name string) *float64 {
	switch name {
	case MetricTemp:
		return r.Temp
	case MetricWind:
		return r.Wind
	case MetricGust:
		return r.Gust
	case MetricPressure:
		return r.Pressure
	case MetricRain:
		return r.Rain
	case MetricHumidity:
		return r.Humidity
	case MetricUV:
		return r.UV
	case MetricSolar:
		return r.Solar
	default:
		return nil
	}
}

// Persisted metric names. These are the columns of weather_readings and the
// metric keys of weather_daily_rollups.
const (
	MetricTemp     = "temp"
	MetricWind     = "wind"
	MetricGust     = "gust"
	MetricPressure = "pressure"
	MetricRain     = "rain"
	MetricHumidity = "humidity"
	MetricUV       = "uv"
	MetricSolar    = "solar"
)

// RollupMetrics is the set of metrics closed into daily rollups.
var RollupMetrics = []string{
	MetricTemp, MetricWind, MetricGust, MetricPressure,
	MetricRain, MetricHumidity, MetricUV, MetricSolar,
}

// DailyStat is the running low/high/current temperature row for one
// station-local calendar date.
type DailyStat struct {
	Day       time.Time
	Low       *float64
	High      *float64
	Current   *float64
	UpdatedAt time.Time
}

// DailyRollup is one closed-day aggregate for one metric. Recomputable
// idempotently from that day's readings.
type DailyRollup struct {
	Day    time.Time
	Metric string
	Max    *float64
	Avg    *float64
	Min    *float64
}

// RollupRangeRow is one row of the daily-range view: a calendar date joined
// against the requested metric's rollup, nulls where the metric is missing.
type RollupRangeRow struct {
	Day time.Time
	Max *float64
	Avg *float64
	Min *float64
}

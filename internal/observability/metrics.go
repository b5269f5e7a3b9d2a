// Package observability defines the service's prometheus metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestCycles counts ingest loop outcomes by result
	// (ok, fetch_error, decode_error, store_error).
	IngestCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weather_ingest_cycles_total",
		Help: "Ingest cycles by outcome.",
	}, []string{"result"})

	// DecodeGaps counts fields that decoded to the null marker.
	DecodeGaps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weather_decode_gaps_total",
		Help: "Packet fields that failed to parse or carried a sentinel.",
	})

	// ReadingsAppended counts persisted readings.
	ReadingsAppended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weather_readings_appended_total",
		Help: "Readings appended to the store.",
	})

	// StatCorrections counts reconciliation passes that corrected a
	// diverged low/high.
	StatCorrections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weather_stat_corrections_total",
		Help: "Daily stat reconciliations that overwrote diverged extremes.",
	})

	// RollupCloses counts day-close runs by result (ok, error).
	RollupCloses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weather_rollup_closes_total",
		Help: "Daily rollup close runs by outcome.",
	}, []string{"result"})

	// LastIngestUnix is the wall-clock time of the last successful ingest.
	LastIngestUnix = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "weather_last_ingest_timestamp_seconds",
		Help: "Unix time of the last successfully persisted reading.",
	})
)

// Package api serves the read-only weather query endpoints. Handlers are
// stateless and run fully in parallel with the ingest loop; they only read.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"weather-telemetry/internal/fetcher"
	"weather-telemetry/internal/schema"
	"weather-telemetry/internal/storage"
)

// Stores is the read surface the handlers need.
type Stores interface {
	storage.ReadingStore
	storage.StatsStore
	storage.RollupStore
}

// Options tune the HTTP server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server exposes the weather query API.
type Server struct {
	httpServer *http.Server
	handlers   *Handlers
	logger     zerolog.Logger
}

// NewServer wires routes onto a gorilla mux and returns the server.
func NewServer(opts Options, stores Stores, live fetcher.RawFetcher, table *schema.Table, loc *time.Location, clock clockwork.Clock, logger zerolog.Logger) *Server {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	h := &Handlers{
		stores:   stores,
		live:     live,
		table:    table,
		location: loc,
		clock:    clock,
		logger:   logger.With().Str("component", "api").Logger(),
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/weather/current", h.Current).Methods(http.MethodGet)
	router.HandleFunc("/api/weather/history", h.History).Methods(http.MethodGet)
	router.HandleFunc("/api/weather/stats", h.Stats).Methods(http.MethodGet)
	router.HandleFunc("/api/weather/daily-range", h.DailyRange).Methods(http.MethodGet)
	router.HandleFunc("/api/weather/series", h.Series).Methods(http.MethodGet)
	router.HandleFunc("/api/weather/raw", h.Raw).Methods(http.MethodGet)
	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 15 * time.Second
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      router,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  60 * time.Second,
		},
		handlers: h,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("query api listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying router; useful for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"weather-telemetry/internal/alerting"
	"weather-telemetry/internal/api"
	"weather-telemetry/internal/config"
	"weather-telemetry/internal/fetcher"
	"weather-telemetry/internal/rollup"
	"weather-telemetry/internal/scheduler"
	"weather-telemetry/internal/schema"
	"weather-telemetry/internal/service"
	"weather-telemetry/internal/stats"
	"weather-telemetry/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetcher() fetcher.RawFetcher {
	return fetcher.NewRaw(fetcher.RawOptions{
		URL:       a.Config.Station.RawURL,
		Timeout:   a.Config.Station.RequestTimeout,
		UserAgent: a.Config.Station.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) schemaTable() (*schema.Table, error) {
	return schema.Lookup(a.Config.Station.SchemaVersion)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running pipeline: ingest loop, daily close
// scheduler, and the query API, all sharing one store.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	table, err := a.schemaTable()
	if err != nil {
		return err
	}
	loc, err := a.Config.Station.Location()
	if err != nil {
		return err
	}
	closeHour, closeMinute, err := config.ParseCloseTime(a.Config.Retention.CloseTime)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	clock := clockwork.NewRealClock()
	raw := a.newFetcher()
	notifier := a.newNotifier()

	ingestSched := scheduler.NewInterval(scheduler.Options{
		Interval: a.Config.Station.PollInterval,
	}, clock, a.Logger)

	var (
		readings storage.ReadingStore
		agg      *stats.Aggregator
	)
	if store != nil {
		readings = store
		agg = stats.New(store, loc, a.Logger)
	}

	svc := service.New(ingestSched, raw, table, readings, agg, notifier, clock, service.Options{
		GustThreshold: a.Config.Alerting.GustThreshold,
		AlertCooldown: a.Config.Alerting.Cooldown,
		AlertsEnabled: a.Config.Alerting.Enabled,
	}, a.Logger)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		a.Logger.Info().Str("url", a.Config.Station.RawURL).Msg("starting ingest loop")
		return svc.Run(groupCtx)
	})

	if store != nil {
		closer := rollup.New(store, store, rollup.Options{
			RetentionWindow: a.Config.Retention.Window,
			AdvisoryLockKey: a.Config.Retention.AdvisoryLockKey,
		}, loc, clock, a.Logger)
		daily := scheduler.NewDaily(closeHour, closeMinute, loc, clock, a.Logger)

		group.Go(func() error {
			a.Logger.Info().Str("close_time", a.Config.Retention.CloseTime).Msg("starting daily close scheduler")
			return daily.Run(groupCtx, closer.CloseDay)
		})

		server := api.NewServer(api.Options{
			Addr:         a.Config.Server.Addr,
			ReadTimeout:  a.Config.Server.ReadTimeout,
			WriteTimeout: a.Config.Server.WriteTimeout,
		}, store, raw, table, loc, clock, a.Logger)

		group.Go(func() error {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("query api: %w", err)
			}
			return nil
		})
		group.Go(func() error {
			<-groupCtx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
			defer shutdownCancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	err = group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("pipeline terminated with error")
		return err
	}

	a.Logger.Info().Msg("pipeline stopped")
	return nil
}

// ExportOptions hold parameters for exporting historical readings.
type ExportOptions struct {
	Metric    string
	Range     string
	Smooth    string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// RollupOptions configure rollup recomputation.
type RollupOptions struct {
	From   time.Time
	To     time.Time
	DryRun bool
}

// DecodeOptions configure the offline decode command.
type DecodeOptions struct {
	SchemaVersion string
	FilePath      string
	FromURL       bool
}

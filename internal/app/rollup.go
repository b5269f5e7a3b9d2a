package app

import (
	"context"
	"errors"
	"time"

	"weather-telemetry/internal/rollup"
	"weather-telemetry/internal/scheduler"
)

// Rollup recomputes daily rollups for every station-local date in
// [From, To]. Safe to re-run: each (day, metric) row is an upsert.
func (a *App) Rollup(ctx context.Context, opts RollupOptions) error {
	loc, err := a.Config.Station.Location()
	if err != nil {
		return err
	}

	start := time.Date(opts.From.Year(), opts.From.Month(), opts.From.Day(), 0, 0, 0, 0, loc)
	end := time.Date(opts.To.Year(), opts.To.Month(), opts.To.Day(), 0, 0, 0, 0, loc)
	if end.Before(start) {
		return errors.New("recompute range is empty, check --from/--to")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot recompute rollups")
	}
	if closeStore != nil {
		defer closeStore()
	}

	if opts.DryRun {
		return a.rollupDryRun(ctx, store, start, end, loc)
	}

	closer := rollup.New(store, nil, rollup.Options{}, loc, nil, a.Logger)

	processed := 0
	failed := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := closer.Recompute(ctx, day); err != nil {
			failed++
			a.Logger.Error().Err(err).Time("day", day).Msg("rollup recompute failed")
			continue
		}
		processed++
	}

	a.Logger.Info().Int("processed", processed).Int("failed", failed).Msg("rollup recompute done")
	if failed > 0 {
		return errors.New("some days failed to recompute, check logs")
	}
	return nil
}

func (a *App) rollupDryRun(ctx context.Context, store rollup.Store, start, end time.Time, loc *time.Location) error {
	a.Logger.Warn().Msg("rollup dry-run: nothing will be written")
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		dayStart, dayEnd := scheduler.DayBounds(day, loc)
		readings, err := store.ListReadingsBetween(ctx, dayStart, dayEnd)
		if err != nil {
			return err
		}
		rollups := rollup.Compute(day, readings)
		a.Logger.Info().
			Str("day", day.Format("2006-01-02")).
			Int("readings", len(readings)).
			Int("metrics", len(rollups)).
			Msg("would recompute")
	}
	return nil
}

package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"weather-telemetry/internal/resample"
	"weather-telemetry/internal/storage"
)

// Export renders historical readings for one metric as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}
	if !slices.Contains(storage.RollupMetrics, opts.Metric) {
		return fmt.Errorf("unknown metric %q", opts.Metric)
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-time.Duration(opts.MaxPoints) * a.Config.Station.PollInterval)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	readings, err := store.ListReadingsBetween(ctx, from, to)
	if err != nil {
		return err
	}
	if len(readings) == 0 {
		a.Logger.Info().Msg("no readings found for export window")
		return nil
	}

	points := make([]resample.Point, 0, len(readings))
	for _, rec := range readings {
		v := math.NaN()
		if p := rec.Metric(opts.Metric); p != nil {
			v = *p
		}
		points = append(points, resample.Point{
			TS:     rec.CapturedAt.UnixMilli(),
			Values: []float64{v},
		})
	}

	rangeKey := resample.ParseRange(opts.Range)
	level := resample.ParseLevel(opts.Smooth)

	points = resample.Sanitize(points)
	points = resample.Decimate(points, opts.MaxPoints)
	points = resample.Smooth(points, rangeKey, level)
	a.Logger.Info().
		Int("total", len(readings)).
		Int("exported", len(points)).
		Str("metric", opts.Metric).
		Msg("exporting readings")

	if opts.CSVPath != "" {
		if err := writeSeriesCSV(opts.CSVPath, opts.Metric, points); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeSeriesPNG(opts.PNGPath, opts.Metric, points); err != nil {
			return err
		}
	}

	return nil
}

func writeSeriesCSV(path, metric string, points []resample.Point) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"captured_at", metric}); err != nil {
		return err
	}

	for _, p := range points {
		value := ""
		if !math.IsNaN(p.Values[0]) {
			value = strconv.FormatFloat(p.Values[0], 'f', -1, 64)
		}
		record := []string{
			time.UnixMilli(p.TS).UTC().Format(time.RFC3339),
			value,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeSeriesPNG(path, metric string, points []resample.Point) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, 0, len(points))
	y := make([]float64, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Values[0]) {
			continue
		}
		x = append(x, time.UnixMilli(p.TS).UTC())
		y = append(y, p.Values[0])
	}
	if len(x) == 0 {
		return errors.New("no plottable values in window")
	}

	lo, hi := resample.YDomain(metric, points)
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: metric,
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.1f")
			},
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    metric,
				XValues: x,
				YValues: y,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// Show prints recent readings.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show readings")
	}
	if closeStore != nil {
		defer closeStore()
	}

	readings, err := store.ListRecentReadings(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(readings) == 0 {
		fmt.Fprintln(os.Stdout, "no readings found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tTemp\tHumidity\tPressure\tWind\tGust\tDir\tRain\tUV\tSolar")

	for _, rec := range readings {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.CapturedAt.UTC().Format(time.RFC3339),
			formatValue(rec.Temp),
			formatValue(rec.Humidity),
			formatValue(rec.Pressure),
			formatValue(rec.Wind),
			formatValue(rec.Gust),
			formatValue(rec.Dir),
			formatValue(rec.Rain),
			formatValue(rec.UV),
			formatValue(rec.Solar),
		)
	}

	writer.Flush()
	return nil
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"weather-telemetry/internal/app"
)

var (
	rollupFrom   string
	rollupTo     string
	rollupDryRun bool
)

var rollupCmd = &cobra.Command{
	Use:   "rollup",
	Short: "Recompute daily rollups for a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		if rollupFrom == "" || rollupTo == "" {
			return fmt.Errorf("--from and --to must be provided")
		}

		from, err := time.Parse("2006-01-02", rollupFrom)
		if err != nil {
			return fmt.Errorf("invalid --from value: %w", err)
		}

		to, err := time.Parse("2006-01-02", rollupTo)
		if err != nil {
			return fmt.Errorf("invalid --to value: %w", err)
		}

		if to.Before(from) {
			return fmt.Errorf("--from must not be after --to")
		}

		opts := app.RollupOptions{
			From:   from,
			To:     to,
			DryRun: rollupDryRun,
		}

		return getApp().Rollup(cmd.Context(), opts)
	},
}

func init() {
	rollupCmd.Flags().StringVar(&rollupFrom, "from", "", "First date to recompute (YYYY-MM-DD, station-local)")
	rollupCmd.Flags().StringVar(&rollupTo, "to", "", "Last date to recompute (YYYY-MM-DD, inclusive)")
	rollupCmd.Flags().BoolVar(&rollupDryRun, "dry-run", false, "Compute without writing to storage")
}

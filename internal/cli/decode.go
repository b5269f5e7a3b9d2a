package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"weather-telemetry/internal/app"
)

var (
	decodeFile    string
	decodeFromURL bool
	decodeVersion string
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a raw packet and print the reading as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if decodeFile == "" && !decodeFromURL {
			return fmt.Errorf("either --file or --url must be provided")
		}

		opts := app.DecodeOptions{
			SchemaVersion: decodeVersion,
			FilePath:      decodeFile,
			FromURL:       decodeFromURL,
		}

		return getApp().Decode(cmd.Context(), opts)
	},
}

func init() {
	decodeCmd.Flags().StringVar(&decodeFile, "file", "", "Path to a raw packet file")
	decodeCmd.Flags().BoolVar(&decodeFromURL, "url", false, "Fetch the packet from the configured station URL")
	decodeCmd.Flags().StringVar(&decodeVersion, "schema-version", "", "Schema version to decode with (defaults to config)")
}

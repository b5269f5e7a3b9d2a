package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"weather-telemetry/internal/decoder"
	"weather-telemetry/internal/schema"
)

// Decode parses a single raw packet offline and prints the decoded
// reading as JSON. The packet comes from a file, or from the configured
// station URL when FromURL is set.
func (a *App) Decode(ctx context.Context, opts DecodeOptions) error {
	version := opts.SchemaVersion
	if version == "" {
		version = a.Config.Station.SchemaVersion
	}
	table, err := schema.Lookup(version)
	if err != nil {
		return err
	}

	var raw string
	switch {
	case opts.FromURL:
		raw, err = a.newFetcher().Fetch(ctx)
		if err != nil {
			return err
		}
	case opts.FilePath != "":
		data, err := os.ReadFile(opts.FilePath)
		if err != nil {
			return err
		}
		raw = string(data)
	default:
		return errors.New("either --file or --url must be provided")
	}

	reading, err := decoder.Decode(raw, table, time.Now().UTC())
	if err != nil {
		return err
	}

	out := make(map[string]any, len(table.Names()))
	for _, name := range table.Names() {
		v, ok := reading.Value(name)
		if !ok || !v.Valid {
			out[name] = nil
			continue
		}
		switch v.Kind {
		case schema.Float:
			out[name] = v.Float
		case schema.Int:
			out[name] = v.Int
		default:
			out[name] = v.Str
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"schema_version": version,
		"captured_at":    reading.CapturedAt.Format(time.RFC3339),
		"gaps":           reading.Gaps(),
		"fields":         out,
	})
}

package fetcher

import (
	"context"
)

// RawFetcher retrieves the station's raw ASCII packet.
type RawFetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// Static returns a fixed packet; used by offline commands and tests.
type Static struct {
	Packet string
	Err    error
}

// Fetch returns the configured packet or error.
func (s *Static) Fetch(ctx context.Context) (string, error) {
	return s.Packet, s.Err
}

var _ RawFetcher = (*Static)(nil)

package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// maxPacketBytes bounds the response body. A healthy packet is well under
// 2 KiB; anything bigger is a misconfigured upstream, not weather data.
const maxPacketBytes = 64 * 1024

// RawOptions parameterise the upstream packet fetcher.
type RawOptions struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// Raw fetches the station's clientraw blob over HTTP.
type Raw struct {
	opts   RawOptions
	logger zerolog.Logger
	client *http.Client
}

// NewRaw constructs an upstream packet fetcher.
func NewRaw(opts RawOptions, logger zerolog.Logger) *Raw {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Raw{
		opts:   opts,
		logger: logger.With().Str("component", "raw_fetcher").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves one raw packet. Any network error, timeout, or non-2xx
// status is returned to the caller; the caller skips the cycle.
func (r *Raw) Fetch(ctx context.Context) (string, error) {
	if r.opts.URL == "" {
		return "", errors.New("raw packet url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.opts.URL, nil)
	if err != nil {
		return "", fmt.Errorf("create raw request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	if ua := strings.TrimSpace(r.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "weatherwatcher/1.0")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch raw packet: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPacketBytes))
	if err != nil {
		return "", fmt.Errorf("read raw packet: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > 120 {
			snippet = snippet[:120]
		}
		if snippet != "" {
			return "", fmt.Errorf("upstream status %d: %s", resp.StatusCode, snippet)
		}
		return "", fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	packet := strings.TrimSpace(string(body))
	if packet == "" {
		return "", errors.New("upstream returned empty packet")
	}
	return packet, nil
}

var _ RawFetcher = (*Raw)(nil)

package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestRawFetchMissingURL(t *testing.T) {
	r := NewRaw(RawOptions{}, noopLogger())
	if _, err := r.Fetch(context.Background()); err == nil {
		t.Fatal("missing url should return an error")
	}
}

func TestRawFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Fatalf("configured user agent should be sent, got %q", got)
		}
		_, _ = w.Write([]byte("12345 3.2 7.5 180 21.4\n"))
	}))
	defer srv.Close()

	r := NewRaw(RawOptions{URL: srv.URL, Timeout: time.Second, UserAgent: "test-agent"}, noopLogger())

	packet, err := r.Fetch(context.Background())
	if err != nil {
		t.Fatalf("successful response should not error: %v", err)
	}
	if packet != "12345 3.2 7.5 180 21.4" {
		t.Fatalf("packet should be trimmed, got %q", packet)
	}
}

func TestRawFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream maintenance"))
	}))
	defer srv.Close()

	r := NewRaw(RawOptions{URL: srv.URL, Timeout: time.Second}, noopLogger())
	if _, err := r.Fetch(context.Background()); err == nil {
		t.Fatal("HTTP 502 should return an error")
	}
}

func TestRawFetchEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("   \n"))
	}))
	defer srv.Close()

	r := NewRaw(RawOptions{URL: srv.URL, Timeout: time.Second}, noopLogger())
	if _, err := r.Fetch(context.Background()); err == nil {
		t.Fatal("blank body should return an error")
	}
}

func TestRawFetchContextCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	r := NewRaw(RawOptions{URL: srv.URL, Timeout: 10 * time.Second}, noopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := r.Fetch(ctx); err == nil {
		t.Fatal("cancelled context should abort the fetch")
	}
}

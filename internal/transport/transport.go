// Package transport assembles the HTTP stack the Tricount client sends its
// requests through: a connection-pooled base transport with HTTP/2 enabled,
// Prometheus instrumentation and request logging.
package transport

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

const (
	idleConnTimeout = 90 * time.Second
	requestTimeout  = 30 * time.Second

	// http2ReadIdleTimeout triggers a health-check ping on connections
	// with no frame activity, so dead connections are dropped instead of
	// stalling the next request.
	http2ReadIdleTimeout = 30 * time.Second
	http2PingTimeout     = 15 * time.Second
)

// NewClient builds the default HTTP client: HTTP/2 where the server offers
// it, falling back to HTTP/1.1, with every request counted, timed and
// logged through logger.
func NewClient(logger *slog.Logger) *http.Client {
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if h2, err := http2.ConfigureTransports(base); err == nil {
		h2.ReadIdleTimeout = http2ReadIdleTimeout
		h2.PingTimeout = http2PingTimeout
	}

	return &http.Client{
		Timeout:   requestTimeout,
		Transport: Wrap(base, logger),
	}
}

// Wrap layers the package's instrumentation around next: Prometheus
// counters and latency histograms innermost, request logging outermost.
func Wrap(next http.RoundTripper, logger *slog.Logger) http.RoundTripper {
	return newLoggingRoundTripper(instrument(next), logger)
}

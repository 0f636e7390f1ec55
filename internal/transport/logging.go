package transport

import (
	"log/slog"
	"net/http"
	"time"
)

// loggingRoundTripper logs one line per request. Successful requests log at
// debug so library users stay quiet by default; transport failures log at
// warn because the caller may retry without ever surfacing the error.
type loggingRoundTripper struct {
	next   http.RoundTripper
	logger *slog.Logger
}

func newLoggingRoundTripper(next http.RoundTripper, logger *slog.Logger) *loggingRoundTripper {
	if logger == nil {
		logger = slog.Default()
	}
	return &loggingRoundTripper{next: next, logger: logger}
}

func (l *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := l.next.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		l.logger.Warn("request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	l.logger.Debug("request completed",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	)
	return resp, nil
}

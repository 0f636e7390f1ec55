package transport

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tricount",
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "Requests sent to the Tricount API, by method and status code.",
	}, []string{"code", "method"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tricount",
		Subsystem: "client",
		Name:      "request_duration_seconds",
		Help:      "Latency of requests sent to the Tricount API.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

// instrument wires the package metrics around next. Metrics register on the
// default registry, so they show up on any promhttp handler the embedding
// program already serves.
func instrument(next http.RoundTripper) http.RoundTripper {
	return promhttp.InstrumentRoundTripperCounter(requestsTotal,
		promhttp.InstrumentRoundTripperDuration(requestDuration, next))
}

package suggest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of a lookup, used as the outcome label.
const (
	outcomeOK      = "ok"
	outcomeEmpty   = "empty"
	outcomeError   = "error"
	outcomeLimited = "limited"
)

type metrics struct {
	// lookups counts lookups by outcome.
	lookups *prometheus.CounterVec
	// latency tracks round trips to the endpoint.
	latency prometheus.Histogram
	// shared counts lookups answered by another caller's request.
	shared prometheus.Counter
}

// newMetrics creates the client's metrics. If reg is nil, the metrics are
// not registered anywhere.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "formula_suggest_lookups_total",
			Help: "Suggestion lookups by outcome",
		}, []string{"outcome"}),
		latency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "formula_suggest_lookup_duration_seconds",
			Help:    "Suggestion lookup round trip in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
		}),
		shared: f.NewCounter(prometheus.CounterOpts{
			Name: "formula_suggest_lookups_shared_total",
			Help: "Suggestion lookups answered by a concurrent identical lookup",
		}),
	}
}

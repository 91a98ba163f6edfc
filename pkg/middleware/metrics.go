package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP request collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the HTTP request collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "setu",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests served, by module, method, and status.",
			},
			[]string{"module", "method", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "setu",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency, by module and method.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"module", "method"},
		),
	}
}

// Instrument returns middleware that counts and times requests under the
// given module label.
func (m *Metrics) Instrument(module string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newRecorder(w)
			next.ServeHTTP(rec, r)

			m.duration.WithLabelValues(module, r.Method).Observe(time.Since(start).Seconds())
			m.requests.WithLabelValues(module, r.Method, strconv.Itoa(rec.status)).Inc()
		})
	}
}

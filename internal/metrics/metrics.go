// Package metrics provides Prometheus metrics for validation traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jacoelho/yang/errors"
)

const namespace = "yangval"

// Metrics holds the collectors. It implements yang.Recorder.
type Metrics struct {
	Validations        *prometheus.CounterVec
	ValidationDuration prometheus.Histogram
	Diagnostics        *prometheus.CounterVec
	CacheRequests      *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Validations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Total number of validation calls by outcome",
		}, []string{"outcome"}),
		ValidationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_duration_seconds",
			Help:      "Time spent compiling and validating one request",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		Diagnostics: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Total number of diagnostics reported by code",
		}, []string{"code"}),
		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_cache_requests_total",
			Help:      "Schema cache lookups by result",
		}, []string{"result"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by status code",
		}, []string{"code"}),
	}
}

// RegisterCacheEntries exports the current number of cached schemas.
func RegisterCacheEntries(reg prometheus.Registerer, entries func() int) {
	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "schema_cache_entries",
		Help:      "Number of compiled schemas held in the cache",
	}, func() float64 { return float64(entries()) })
}

// ObserveValidation records one validation call.
func (m *Metrics) ObserveValidation(outcome string, elapsed time.Duration, diags []errors.Diagnostic) {
	m.Validations.WithLabelValues(outcome).Inc()
	m.ValidationDuration.Observe(elapsed.Seconds())
	for _, d := range diags {
		m.Diagnostics.WithLabelValues(d.Code).Inc()
	}
}

// ObserveSchemaCache records one cache lookup.
func (m *Metrics) ObserveSchemaCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest records one served HTTP request.
func (m *Metrics) ObserveHTTPRequest(status int) {
	m.HTTPRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}

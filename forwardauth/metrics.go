package forwardauth

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type (
	// Metrics counts decisions. The counters are write-only from the
	// request path; nothing in a decision ever reads them.
	Metrics struct {
		registry  *prometheus.Registry
		decisions *prometheus.CounterVec
		rejected  *prometheus.CounterVec
		checks    *prometheus.HistogramVec
	}
)

const metricsNamespace = "rememberme"

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "decisions_total",
			Help:      "Forward-auth decisions by the channel that authenticated the request (or challenge).",
		}, []string{"outcome"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rejected_credentials_total",
			Help:      "Credentials that were present but not accepted, by reason.",
		}, []string{"reason"}),
		checks: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "credential_check_seconds",
			Help:      "Time spent comparing a password against the credential store.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"channel"}),
	}
	m.registry.MustRegister(m.decisions, m.rejected, m.checks)
	return m
}

// Handler exposes the metrics in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) decision(outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) reject(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) observeCheck(channel Source, started time.Time) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(channel.String()).Observe(time.Since(started).Seconds())
}

// Package metrics exposes Prometheus collectors for change checks.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is nil-safe: a nil *Metrics records nothing.
type Metrics struct {
	checksTotal        *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	checkDuration      prometheus.Histogram
	lastRun            prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagewatch_checks_total",
				Help: "Total number of target checks, labeled by outcome.",
			},
			[]string{"outcome"},
		),
		notificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagewatch_notifications_total",
				Help: "Total number of change notifications, labeled by result.",
			},
			[]string{"result"},
		),
		checkDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pagewatch_check_duration_seconds",
				Help:    "Histogram of per-target check latencies.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		),
		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pagewatch_last_run_timestamp_seconds",
				Help: "Unix time of the last completed batch run.",
			},
		),
	}
	reg.MustRegister(m.checksTotal, m.notificationsTotal, m.checkDuration, m.lastRun)
	return m
}

// NewRegistry returns a registry with the Go and process collectors installed.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveCheck(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.checksTotal.WithLabelValues(outcome).Inc()
	m.checkDuration.Observe(took.Seconds())
}

func (m *Metrics) ObserveNotification(result string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) MarkRun(at time.Time) {
	if m == nil {
		return
	}
	m.lastRun.Set(float64(at.Unix()))
}

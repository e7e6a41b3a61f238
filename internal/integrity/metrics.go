package integrity

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomeFailed  = "failed"
	outcomeSkipped = "skipped"
)

// Metrics tracks orchestrator runs.
type Metrics struct {
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram
	LastSuccess prometheus.Gauge
}

func NewMetrics() *Metrics {
	return NewMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func NewMetricsWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustledger_integrity_runs_total",
			Help: "Integrity runs by outcome (success, failed, skipped)",
		}, []string{"outcome"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustledger_integrity_run_duration_seconds",
			Help:    "Wall time of a full integrity run",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "trustledger_integrity_last_success_timestamp_seconds",
			Help: "Unix time of the last run that finished without errors",
		}),
	}
}

func (m *Metrics) observeRun(outcome string, started, finished time.Time) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(finished.Sub(started).Seconds())
	if outcome == outcomeSuccess {
		m.LastSuccess.Set(float64(finished.Unix()))
	}
}

func (m *Metrics) incSkipped() {
	m.RunsTotal.WithLabelValues(outcomeSkipped).Inc()
}

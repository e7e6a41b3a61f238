package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the anomaly detector.
type Metrics struct {
	AnomaliesDetected *prometheus.CounterVec
	RecordsSkipped    *prometheus.CounterVec
	CategoryFailures  *prometheus.CounterVec
	DetectDuration    *prometheus.HistogramVec
	AnomaliesResolved prometheus.Counter
}

// New creates a new Metrics instance registered on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg; tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AnomaliesDetected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustledger_anomalies_detected_total",
			Help: "New anomalies recorded, by category and severity",
		}, []string{"category", "severity"}),
		RecordsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustledger_anomaly_records_skipped_total",
			Help: "Records skipped with a diagnostic, by category",
		}, []string{"category"}),
		CategoryFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustledger_anomaly_category_failures_total",
			Help: "Detector categories aborted by a store failure",
		}, []string{"category"}),
		DetectDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trustledger_anomaly_detect_duration_seconds",
			Help:    "Duration of a single detector category",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"category"}),
		AnomaliesResolved: f.NewCounter(prometheus.CounterOpts{
			Name: "trustledger_anomalies_resolved_total",
			Help: "Anomalies resolved by auditors",
		}),
	}
}

func (m *Metrics) IncDetected(category, severity string) {
	m.AnomaliesDetected.WithLabelValues(category, severity).Inc()
}

func (m *Metrics) IncSkipped(category string) {
	m.RecordsSkipped.WithLabelValues(category).Inc()
}

func (m *Metrics) IncCategoryFailure(category string) {
	m.CategoryFailures.WithLabelValues(category).Inc()
}

// ObserveDetect records a category duration. Call with time.Now() at the start.
func (m *Metrics) ObserveDetect(category string, start time.Time) {
	m.DetectDuration.WithLabelValues(category).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncResolved() {
	m.AnomaliesResolved.Inc()
}

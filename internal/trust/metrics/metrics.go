package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for trust score calculation.
type Metrics struct {
	ScoresCalculated  prometheus.Counter
	CalculateFailures prometheus.Counter
	OverallScore      *prometheus.GaugeVec
	CalculateDuration prometheus.Histogram
}

// New creates a new Metrics instance registered on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg; tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ScoresCalculated: f.NewCounter(prometheus.CounterOpts{
			Name: "trustledger_trust_scores_calculated_total",
			Help: "Department trust indicators computed and persisted",
		}),
		CalculateFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "trustledger_trust_score_failures_total",
			Help: "Department trust calculations that failed",
		}),
		OverallScore: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trustledger_trust_overall_score",
			Help: "Latest overall trust score per department",
		}, []string{"department_id"}),
		CalculateDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustledger_trust_score_duration_seconds",
			Help:    "Duration of a single department calculation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

func (m *Metrics) ObserveCalculated(departmentID string, overall int, start time.Time) {
	m.ScoresCalculated.Inc()
	m.OverallScore.WithLabelValues(departmentID).Set(float64(overall))
	m.CalculateDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncFailure() {
	m.CalculateFailures.Inc()
}

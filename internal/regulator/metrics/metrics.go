package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the regulator client.
type Metrics struct {
	Submissions    *prometheus.CounterVec
	Retries        *prometheus.CounterVec
	SubmitDuration *prometheus.HistogramVec
}

// New creates a Metrics instance with all regulator client metrics registered.
func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fatoora_regulator_submissions_total",
			Help: "Total regulator submissions by operation and outcome",
		}, []string{"operation", "outcome"}),
		Retries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fatoora_regulator_retries_total",
			Help: "Total regulator submission retry attempts by operation",
		}, []string{"operation"}),
		SubmitDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fatoora_regulator_submit_duration_seconds",
			Help:    "Wall-clock duration of regulator submissions including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementSubmission(operation, outcome string) {
	m.Submissions.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) IncrementRetry(operation string) {
	m.Retries.WithLabelValues(operation).Inc()
}

// ObserveSubmit records total submission duration. Call with time.Now() at
// the start of the operation.
func (m *Metrics) ObserveSubmit(operation string, start time.Time) {
	m.SubmitDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

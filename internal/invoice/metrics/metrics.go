package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the invoice pipeline.
type Metrics struct {
	Submissions      *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
	ReportingSkipped prometheus.Counter
}

// New creates a Metrics instance with all invoice pipeline metrics registered.
func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fatoora_invoice_submissions_total",
			Help: "Total invoice processing attempts by action and resulting status",
		}, []string{"action", "status"}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fatoora_invoice_pipeline_duration_seconds",
			Help:    "End-to-end duration of the invoice processing pipeline",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ReportingSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fatoora_invoice_reporting_skipped_total",
			Help: "Total cleared invoices whose reporting step was skipped by policy",
		}),
	}
}

func (m *Metrics) IncrementSubmission(action, status string) {
	m.Submissions.WithLabelValues(action, status).Inc()
}

func (m *Metrics) IncrementReportingSkipped() {
	m.ReportingSkipped.Inc()
}

// ObservePipeline records full pipeline duration. Call with time.Now() at
// the start of the attempt.
func (m *Metrics) ObservePipeline(start time.Time) {
	m.PipelineDuration.Observe(time.Since(start).Seconds())
}

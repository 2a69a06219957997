package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the certificate module.
type Metrics struct {
	UploadsAccepted prometheus.Counter
	UploadsRejected *prometheus.CounterVec
	UploadDuration  prometheus.Histogram
}

// New creates a Metrics instance with all certificate module metrics registered.
func New() *Metrics {
	return &Metrics{
		UploadsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fatoora_certificate_uploads_accepted_total",
			Help: "Total number of certificate uploads accepted and activated",
		}),
		UploadsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fatoora_certificate_uploads_rejected_total",
			Help: "Total number of certificate uploads rejected, by reason",
		}, []string{"reason"}),
		UploadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fatoora_certificate_upload_duration_seconds",
			Help:    "Duration of certificate upload operations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementUploadAccepted() {
	m.UploadsAccepted.Inc()
}

func (m *Metrics) IncrementUploadRejected(reason string) {
	m.UploadsRejected.WithLabelValues(reason).Inc()
}

// ObserveUpload records the duration of an upload operation. Call with
// time.Now() at the start of the operation.
func (m *Metrics) ObserveUpload(start time.Time) {
	m.UploadDuration.Observe(time.Since(start).Seconds())
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tenant module.
type Metrics struct {
	TenantsCreated      prometheus.Counter
	TokensIssued        prometheus.Counter
	AuthFailures        *prometheus.CounterVec
	AuthenticateSeconds prometheus.Histogram
}

// New creates a Metrics instance with all tenant module metrics registered.
func New() *Metrics {
	return &Metrics{
		TenantsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fatoora_tenants_created_total",
			Help: "Total number of tenants created",
		}),
		TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fatoora_tenant_tokens_issued_total",
			Help: "Total number of tenant access tokens issued",
		}),
		AuthFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fatoora_tenant_auth_failures_total",
			Help: "Total authentication failures by reason",
		}, []string{"reason"}),
		AuthenticateSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fatoora_tenant_authenticate_duration_seconds",
			Help:    "Duration of tenant authentication including bcrypt verification",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementTenantCreated() {
	m.TenantsCreated.Inc()
}

func (m *Metrics) IncrementTokenIssued() {
	m.TokensIssued.Inc()
}

func (m *Metrics) IncrementAuthFailure(reason string) {
	m.AuthFailures.WithLabelValues(reason).Inc()
}

// ObserveAuthenticate records authentication duration. Call with time.Now()
// at the start of the operation.
func (m *Metrics) ObserveAuthenticate(start time.Time) {
	m.AuthenticateSeconds.Observe(time.Since(start).Seconds())
}

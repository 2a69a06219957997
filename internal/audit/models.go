package audit

import (
	"time"

	id "fatoora/pkg/domain"
)

// Action names the domain operation an event records.
type Action string

const (
	ActionInvoiceCleared       Action = "invoice.cleared"
	ActionInvoiceReported      Action = "invoice.reported"
	ActionInvoiceRejected      Action = "invoice.rejected"
	ActionInvoiceFailed        Action = "invoice.failed"
	ActionPolicyDenied         Action = "policy.denied"
	ActionCertificateActivated Action = "certificate.activated"
	ActionOnboardingStarted    Action = "onboarding.started"
	ActionOnboardingCompleted  Action = "onboarding.completed"
	ActionTenantTokenIssued    Action = "tenant.token_issued"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	TenantID      id.TenantID    `json:"tenant_id"`
	Environment   id.Environment `json:"environment,omitempty"`
	InvoiceNumber string         `json:"invoice_number,omitempty"`
	Action        Action         `json:"action"`
	Decision      string         `json:"decision,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	RequestID     string         `json:"request_id,omitempty"`
	ClientIP      string         `json:"client_ip,omitempty"`
	UserAgent     string         `json:"user_agent,omitempty"`
}

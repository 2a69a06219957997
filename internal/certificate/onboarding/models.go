// Package onboarding drives certificate issuance against the regulator:
// a single round trip for sandbox, an OTP-gated two-step flow for production.
package onboarding

import (
	"time"

	id "fatoora/pkg/domain"
)

// SessionStatus tracks a production onboarding session.
type SessionStatus string

const (
	SessionStatusOTPPending SessionStatus = "OTP_PENDING"
)

// Session holds the material a production onboarding needs between Begin
// and Complete. It lives in Redis under a TTL so an abandoned onboarding
// expires on its own.
type Session struct {
	ID        id.OnboardingID `json:"id"`
	TenantID  id.TenantID     `json:"tenant_id"`
	CSRPEM    []byte          `json:"csr_pem"`
	KeyPEM    []byte          `json:"key_pem"`
	OrgName   string          `json:"org_name"`
	VATNumber string          `json:"vat_number"`
	Status    SessionStatus   `json:"status"`
	Attempts  int             `json:"attempts"`
	CreatedAt time.Time       `json:"created_at"`
}

// OrgInfo identifies the organization the production certificate is issued to.
type OrgInfo struct {
	Name      string
	VATNumber string
}

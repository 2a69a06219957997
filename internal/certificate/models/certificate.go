package models

import (
	"time"

	id "fatoora/pkg/domain"
	derrors "fatoora/pkg/domain-errors"
)

// CertificateStatus tracks the lifecycle of a credential's metadata row.
type CertificateStatus string

const (
	CertificateStatusActive  CertificateStatus = "ACTIVE"
	CertificateStatusExpired CertificateStatus = "EXPIRED"
	CertificateStatusRevoked CertificateStatus = "REVOKED"
)

// Certificate is the metadata row for a stored credential. The PEM material
// itself lives only in the credential store.
//
// Invariants:
//   - At most one ACTIVE row per (tenant, environment); activating a new
//     certificate revokes the previous one in the same transaction.
//   - Rows are deactivated, never deleted.
type Certificate struct {
	ID           id.CertificateID  `json:"id"`
	TenantID     id.TenantID       `json:"tenant_id"`
	Environment  id.Environment    `json:"environment"`
	SerialNumber string            `json:"serial_number"`
	Issuer       string            `json:"issuer"`
	ExpiresAt    time.Time         `json:"expires_at"`
	Status       CertificateStatus `json:"status"`
	UploadedAt   time.Time         `json:"uploaded_at"`
}

func (c *Certificate) IsActive() bool {
	return c.Status == CertificateStatusActive
}

// CanSign reports whether the certificate may be used for signing at the
// given instant.
func (c *Certificate) CanSign(now time.Time) error {
	if c.Status != CertificateStatusActive {
		return derrors.New(derrors.CodeCertificate, "certificate is not active")
	}
	if now.After(c.ExpiresAt) {
		return derrors.New(derrors.CodeCertificate, "certificate has expired")
	}
	return nil
}

// NewCertificate builds an ACTIVE metadata row.
func NewCertificate(certID id.CertificateID, tenantID id.TenantID, env id.Environment, serial, issuer string, expiresAt, now time.Time) (*Certificate, error) {
	if tenantID.IsNil() {
		return nil, derrors.New(derrors.CodeInvariantViolation, "tenant id is required")
	}
	if !env.Valid() {
		return nil, derrors.New(derrors.CodeInvariantViolation, "environment is invalid")
	}
	if serial == "" {
		return nil, derrors.New(derrors.CodeInvariantViolation, "serial number is required")
	}
	return &Certificate{
		ID:           certID,
		TenantID:     tenantID,
		Environment:  env,
		SerialNumber: serial,
		Issuer:       issuer,
		ExpiresAt:    expiresAt,
		Status:       CertificateStatusActive,
		UploadedAt:   now,
	}, nil
}

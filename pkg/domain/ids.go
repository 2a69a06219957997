// Package domain holds the typed identifiers and enumerations shared across
// features. IDs wrap uuid.UUID so a tenant ID can never be passed where an
// invoice ID is expected.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type (
	// TenantID identifies a merchant organization. Every store read and
	// write is scoped by it.
	TenantID uuid.UUID

	// InvoiceID identifies a single clearable invoice row.
	InvoiceID uuid.UUID

	// CertificateID identifies a certificate metadata row.
	CertificateID uuid.UUID

	// OnboardingID identifies a pending production onboarding session.
	OnboardingID uuid.UUID
)

func (id TenantID) String() string      { return uuid.UUID(id).String() }
func (id InvoiceID) String() string     { return uuid.UUID(id).String() }
func (id CertificateID) String() string { return uuid.UUID(id).String() }
func (id OnboardingID) String() string  { return uuid.UUID(id).String() }

func (id TenantID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id InvoiceID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id CertificateID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id OnboardingID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// ParseTenantID parses a tenant ID from its string form.
func ParseTenantID(s string) (TenantID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return TenantID{}, fmt.Errorf("invalid tenant id: %w", err)
	}
	return TenantID(u), nil
}

// ParseInvoiceID parses an invoice ID from its string form.
func ParseInvoiceID(s string) (InvoiceID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return InvoiceID{}, fmt.Errorf("invalid invoice id: %w", err)
	}
	return InvoiceID(u), nil
}

// ParseCertificateID parses a certificate ID from its string form.
func ParseCertificateID(s string) (CertificateID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return CertificateID{}, fmt.Errorf("invalid certificate id: %w", err)
	}
	return CertificateID(u), nil
}

// ParseOnboardingID parses an onboarding session ID from its string form.
func ParseOnboardingID(s string) (OnboardingID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return OnboardingID{}, fmt.Errorf("invalid onboarding id: %w", err)
	}
	return OnboardingID(u), nil
}

// MarshalText implementations keep IDs stable in JSON payloads and log output.

func (id TenantID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id InvoiceID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *TenantID) UnmarshalText(b []byte) error {
	parsed, err := ParseTenantID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *InvoiceID) UnmarshalText(b []byte) error {
	parsed, err := ParseInvoiceID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

package handler

import (
	"fatoora/internal/certificate/onboarding"
	derrors "fatoora/pkg/domain-errors"
)

// UploadCertificateRequest is the POST /certificates body. PEM blocks are
// sent verbatim; JSON string escaping handles the newlines.
type UploadCertificateRequest struct {
	CertificatePEM string `json:"certificate_pem"`
	PrivateKeyPEM  string `json:"private_key_pem"`
}

func (r UploadCertificateRequest) Validate() error {
	if r.CertificatePEM == "" {
		return derrors.New(derrors.CodeValidation, "certificate_pem is required")
	}
	if r.PrivateKeyPEM == "" {
		return derrors.New(derrors.CodeValidation, "private_key_pem is required")
	}
	return nil
}

// OnboardingRequest starts either onboarding flow with a CSR and its key.
type OnboardingRequest struct {
	CSRPEM           string `json:"csr_pem"`
	PrivateKeyPEM    string `json:"private_key_pem"`
	OrganizationName string `json:"organization_name,omitempty"`
	VATNumber        string `json:"vat_number,omitempty"`
}

func (r OnboardingRequest) Validate() error {
	if r.CSRPEM == "" {
		return derrors.New(derrors.CodeValidation, "csr_pem is required")
	}
	if r.PrivateKeyPEM == "" {
		return derrors.New(derrors.CodeValidation, "private_key_pem is required")
	}
	return nil
}

func (r OnboardingRequest) OrgInfo() onboarding.OrgInfo {
	return onboarding.OrgInfo{Name: r.OrganizationName, VATNumber: r.VATNumber}
}

// CompleteOnboardingRequest finishes a production onboarding with the OTP
// from the regulator portal.
type CompleteOnboardingRequest struct {
	OTP string `json:"otp"`
}

func (r CompleteOnboardingRequest) Validate() error {
	if r.OTP == "" {
		return derrors.New(derrors.CodeValidation, "otp is required")
	}
	return nil
}

package onboarding

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fatoora/internal/audit"
	"fatoora/internal/certificate/models"
	"fatoora/internal/certificate/verifier"
	id "fatoora/pkg/domain"
	derrors "fatoora/pkg/domain-errors"
	"fatoora/pkg/platform/sentinel"
	"fatoora/pkg/requestcontext"
)

// DefaultSessionTTL bounds how long a production onboarding may sit between
// Begin and Complete.
const DefaultSessionTTL = 30 * time.Minute

// RegulatorClient is the slice of the regulator API onboarding needs.
type RegulatorClient interface {
	RequestComplianceCertificate(ctx context.Context, env id.Environment, csrPEM []byte) ([]byte, error)
	RequestProductionCertificate(ctx context.Context, csrPEM []byte, otp string) ([]byte, error)
}

// Installer activates a verified credential. Implemented by the certificate
// lifecycle service.
type Installer interface {
	Upload(ctx context.Context, tenantID id.TenantID, env id.Environment, certPEM, keyPEM []byte) (*models.Certificate, error)
}

// SessionStore persists production onboarding sessions between Begin and
// Complete.
type SessionStore interface {
	Put(ctx context.Context, session *Session, ttl time.Duration) error
	Get(ctx context.Context, tenantID id.TenantID) (*Session, error)
	Delete(ctx context.Context, tenantID id.TenantID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service runs the onboarding flows.
type Service struct {
	regulator      RegulatorClient
	installer      Installer
	sessions       SessionStore
	logger         *slog.Logger
	auditPublisher AuditPublisher
	sessionTTL     time.Duration
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.sessionTTL = ttl
	}
}

// New constructs a Service.
func New(regulator RegulatorClient, installer Installer, sessions SessionStore, opts ...Option) *Service {
	s := &Service{
		regulator:  regulator,
		installer:  installer,
		sessions:   sessions,
		logger:     slog.Default(),
		sessionTTL: DefaultSessionTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitCSR runs the sandbox flow in a single round trip: the regulator's
// compliance endpoint issues a certificate for the CSR, which is verified
// against the supplied key and activated.
func (s *Service) SubmitCSR(ctx context.Context, tenantID id.TenantID, csrPEM, keyPEM []byte) (*models.Certificate, error) {
	if len(csrPEM) == 0 || len(keyPEM) == 0 {
		return nil, derrors.New(derrors.CodeValidation, "csr and private key are required")
	}

	certPEM, err := s.regulator.RequestComplianceCertificate(ctx, id.EnvironmentSandbox, csrPEM)
	if err != nil {
		return nil, err
	}

	if err := verifier.Verify(certPEM, keyPEM); err != nil {
		return nil, err
	}

	cert, err := s.installer.Upload(ctx, tenantID, id.EnvironmentSandbox, certPEM, keyPEM)
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.Event{
		TenantID:    tenantID,
		Environment: id.EnvironmentSandbox,
		Action:      audit.ActionOnboardingCompleted,
		Decision:    "ISSUED",
	})
	return cert, nil
}

// Begin opens a production onboarding session. The session holds the CSR and
// key until the tenant supplies the regulator-issued OTP. One session per
// tenant; a new Begin replaces any pending one.
func (s *Service) Begin(ctx context.Context, tenantID id.TenantID, csrPEM, keyPEM []byte, org OrgInfo) (*Session, error) {
	if len(csrPEM) == 0 || len(keyPEM) == 0 {
		return nil, derrors.New(derrors.CodeValidation, "csr and private key are required")
	}
	if org.Name == "" || org.VATNumber == "" {
		return nil, derrors.New(derrors.CodeValidation, "organization name and VAT number are required")
	}

	session := &Session{
		ID:        id.OnboardingID(uuid.New()),
		TenantID:  tenantID,
		CSRPEM:    csrPEM,
		KeyPEM:    keyPEM,
		OrgName:   org.Name,
		VATNumber: org.VATNumber,
		Status:    SessionStatusOTPPending,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.sessions.Put(ctx, session, s.sessionTTL); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to persist onboarding session")
	}

	s.logger.InfoContext(ctx, "production onboarding started",
		"tenant_id", tenantID,
		"onboarding_id", session.ID,
	)
	s.logAudit(ctx, audit.Event{
		TenantID:    tenantID,
		Environment: id.EnvironmentProduction,
		Action:      audit.ActionOnboardingStarted,
		Decision:    string(SessionStatusOTPPending),
	})
	return session, nil
}

// Complete finishes a production onboarding with the OTP the tenant obtained
// from the regulator portal. An invalid OTP keeps the session alive so the
// tenant can retry; a certificate that fails verification ends the session
// without storing anything.
func (s *Service) Complete(ctx context.Context, tenantID id.TenantID, otp string) (*models.Certificate, error) {
	if otp == "" {
		return nil, derrors.New(derrors.CodeValidation, "otp is required")
	}

	session, err := s.sessions.Get(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "no pending onboarding session")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load onboarding session")
	}

	certPEM, err := s.regulator.RequestProductionCertificate(ctx, session.CSRPEM, otp)
	if err != nil {
		if derrors.HasCode(err, derrors.CodeUnauthorized) {
			// Wrong OTP. Count the attempt but keep the session for retry.
			session.Attempts++
			if putErr := s.sessions.Put(ctx, session, s.sessionTTL); putErr != nil {
				s.logger.ErrorContext(ctx, "failed to record otp attempt", "error", putErr)
			}
			return nil, err
		}
		return nil, err
	}

	if err := verifier.Verify(certPEM, session.KeyPEM); err != nil {
		if delErr := s.sessions.Delete(ctx, tenantID); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to end onboarding session", "error", delErr)
		}
		return nil, err
	}

	cert, err := s.installer.Upload(ctx, tenantID, id.EnvironmentProduction, certPEM, session.KeyPEM)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Delete(ctx, tenantID); err != nil {
		s.logger.ErrorContext(ctx, "failed to end onboarding session", "error", err)
	}

	s.logger.InfoContext(ctx, "production onboarding completed",
		"tenant_id", tenantID,
		"onboarding_id", session.ID,
		"serial_number", cert.SerialNumber,
	)
	s.logAudit(ctx, audit.Event{
		TenantID:    tenantID,
		Environment: id.EnvironmentProduction,
		Action:      audit.ActionOnboardingCompleted,
		Decision:    "ISSUED",
		Reason:      "serial " + cert.SerialNumber,
	})
	return cert, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}

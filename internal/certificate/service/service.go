// Package service orchestrates certificate installation: cryptographic
// verification, credential storage, and the metadata activation swap.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fatoora/internal/audit"
	"fatoora/internal/certificate/credstore"
	"fatoora/internal/certificate/metrics"
	"fatoora/internal/certificate/models"
	"fatoora/internal/certificate/verifier"
	id "fatoora/pkg/domain"
	derrors "fatoora/pkg/domain-errors"
	"fatoora/pkg/platform/sentinel"
	"fatoora/pkg/requestcontext"
)

type MetadataStore interface {
	ActivateSwap(ctx context.Context, cert *models.Certificate) error
	FindActive(ctx context.Context, tenantID id.TenantID, env id.Environment) (*models.Certificate, error)
	MarkExpired(ctx context.Context, certID id.CertificateID) error
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Certificate, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service installs and tracks signing credentials.
type Service struct {
	creds          credstore.Store
	metadata       MetadataStore
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(creds credstore.Store, metadata MetadataStore, opts ...Option) *Service {
	s := &Service{creds: creds, metadata: metadata, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload verifies and installs a credential, replacing any active one.
//
// Ordering matters: the credential is written before the metadata swap so a
// row marked ACTIVE always has signable material behind it. If the swap
// fails, the previous credential is restored.
func (s *Service) Upload(ctx context.Context, tenantID id.TenantID, env id.Environment, certPEM, keyPEM []byte) (*models.Certificate, error) {
	start := time.Now()
	defer s.observeUpload(start)

	if err := verifier.Verify(certPEM, keyPEM); err != nil {
		s.incrementUploadRejected("key_mismatch")
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if err := verifier.CheckExpiry(certPEM, now); err != nil {
		s.incrementUploadRejected("expired")
		return nil, err
	}

	parsed, err := verifier.Parse(certPEM)
	if err != nil {
		s.incrementUploadRejected("unparseable")
		return nil, err
	}

	cert, err := models.NewCertificate(
		id.CertificateID(uuid.New()), tenantID, env,
		parsed.SerialNumber.String(), parsed.Issuer.String(),
		parsed.NotAfter, now,
	)
	if err != nil {
		return nil, err
	}

	previous, err := s.creds.Get(ctx, tenantID, env)
	hadPrevious := err == nil
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to read existing credential")
	}

	if err := s.creds.Put(ctx, tenantID, env, credstore.Credential{CertPEM: certPEM, KeyPEM: keyPEM}); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to store credential")
	}

	if err := s.metadata.ActivateSwap(ctx, cert); err != nil {
		s.rollbackCredential(ctx, tenantID, env, previous, hadPrevious)
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to activate certificate")
	}

	s.logger.InfoContext(ctx, "certificate activated",
		"tenant_id", tenantID,
		"environment", env,
		"serial_number", cert.SerialNumber,
		"expires_at", cert.ExpiresAt,
	)
	s.logAudit(ctx, audit.Event{
		TenantID:    tenantID,
		Environment: env,
		Action:      audit.ActionCertificateActivated,
		Decision:    "ACTIVATED",
		Reason:      "serial " + cert.SerialNumber,
	})
	s.incrementUploadAccepted()

	return cert, nil
}

// Active returns the active certificate metadata, marking it EXPIRED first
// when its validity window has passed.
func (s *Service) Active(ctx context.Context, tenantID id.TenantID, env id.Environment) (*models.Certificate, error) {
	cert, err := s.metadata.FindActive(ctx, tenantID, env)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeCertificate, "no active certificate for this environment")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load active certificate")
	}
	if requestcontext.Now(ctx).After(cert.ExpiresAt) {
		if err := s.metadata.MarkExpired(ctx, cert.ID); err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to expire certificate")
		}
		cert.Status = models.CertificateStatusExpired
	}
	return cert, nil
}

// List returns all certificate metadata rows for a tenant across both
// environments, newest first.
func (s *Service) List(ctx context.Context, tenantID id.TenantID) ([]*models.Certificate, error) {
	certs, err := s.metadata.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list certificates")
	}
	return certs, nil
}

func (s *Service) rollbackCredential(ctx context.Context, tenantID id.TenantID, env id.Environment, previous credstore.Credential, hadPrevious bool) {
	var err error
	if hadPrevious {
		err = s.creds.Put(ctx, tenantID, env, previous)
	} else {
		err = s.creds.Delete(ctx, tenantID, env)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "credential rollback failed",
			"tenant_id", tenantID,
			"environment", env,
			"error", err,
		)
	}
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}

func (s *Service) incrementUploadAccepted() {
	if s.metrics != nil {
		s.metrics.IncrementUploadAccepted()
	}
}

func (s *Service) incrementUploadRejected(reason string) {
	if s.metrics != nil {
		s.metrics.IncrementUploadRejected(reason)
	}
}

func (s *Service) observeUpload(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveUpload(start)
	}
}

// Package service orchestrates tenant enrollment, authentication, and the
// active-tenant check the auth middleware runs on every request.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fatoora/internal/audit"
	"fatoora/internal/tenant/metrics"
	"fatoora/internal/tenant/models"
	"fatoora/internal/tenant/secrets"
	id "fatoora/pkg/domain"
	derrors "fatoora/pkg/domain-errors"
	"fatoora/pkg/platform/sentinel"
	"fatoora/pkg/requestcontext"
)

// DefaultTokenTTL bounds how long an issued access token stays valid.
const DefaultTokenTTL = time.Hour

type Store interface {
	CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error
	FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
}

// TokenIssuer signs environment-bound access tokens.
type TokenIssuer interface {
	Issue(tenantID id.TenantID, env id.Environment, expiresIn time.Duration) (string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service manages the tenant lifecycle.
type Service struct {
	store          Store
	issuer         TokenIssuer
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tokenTTL       time.Duration
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

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.tokenTTL = ttl
	}
}

// New constructs a Service.
func New(store Store, issuer TokenIssuer, opts ...Option) *Service {
	s := &Service{
		store:    store,
		issuer:   issuer,
		logger:   slog.Default(),
		tokenTTL: DefaultTokenTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create enrolls a tenant and returns it with the generated plaintext
// secret. The secret is shown exactly once; only its hash is stored.
func (s *Service) Create(ctx context.Context, name string, defaultEnv id.Environment) (*models.Tenant, string, error) {
	secret, err := secrets.Generate()
	if err != nil {
		return nil, "", derrors.Wrap(err, derrors.CodeInternal, "failed to generate tenant secret")
	}
	hash, err := secrets.Hash(secret)
	if err != nil {
		return nil, "", derrors.Wrap(err, derrors.CodeInternal, "failed to hash tenant secret")
	}

	tenant, err := models.NewTenant(id.TenantID(uuid.New()), name, hash, defaultEnv, requestcontext.Now(ctx))
	if err != nil {
		if derrors.HasCode(err, derrors.CodeInvariantViolation) {
			return nil, "", derrors.New(derrors.CodeValidation, derrors.Message(err))
		}
		return nil, "", err
	}

	if err := s.store.CreateIfNameAvailable(ctx, tenant); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, "", derrors.New(derrors.CodeConflict, "tenant name must be unique")
		}
		return nil, "", derrors.Wrap(err, derrors.CodeInternal, "failed to create tenant")
	}

	s.logger.InfoContext(ctx, "tenant created", "tenant_id", tenant.ID, "name", tenant.Name)
	s.incrementTenantCreated()
	return tenant, secret, nil
}

// Authenticate verifies the tenant secret and issues an access token bound
// to the requested environment. An empty environment falls back to the
// tenant's default.
func (s *Service) Authenticate(ctx context.Context, tenantID id.TenantID, secret string, env id.Environment) (string, error) {
	start := time.Now()
	defer s.observeAuthenticate(start)

	tenant, err := s.store.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.incrementAuthFailure("unknown_tenant")
			return "", derrors.New(derrors.CodeUnauthorized, "invalid credentials")
		}
		return "", derrors.Wrap(err, derrors.CodeInternal, "failed to load tenant")
	}
	if !tenant.IsActive() {
		s.incrementAuthFailure("inactive")
		return "", derrors.New(derrors.CodeForbidden, "tenant is inactive")
	}
	if err := secrets.Verify(secret, tenant.SecretHash); err != nil {
		s.incrementAuthFailure("bad_secret")
		return "", derrors.New(derrors.CodeUnauthorized, "invalid credentials")
	}

	if env == "" {
		env = tenant.DefaultEnvironment
	}
	if !env.Valid() {
		return "", derrors.New(derrors.CodeValidation, "environment is invalid")
	}

	token, err := s.issuer.Issue(tenantID, env, s.tokenTTL)
	if err != nil {
		return "", derrors.Wrap(err, derrors.CodeInternal, "failed to issue token")
	}

	s.logAudit(ctx, audit.Event{
		TenantID:    tenantID,
		Environment: env,
		Action:      audit.ActionTenantTokenIssued,
		Decision:    "ISSUED",
	})
	s.incrementTokenIssued()
	return token, nil
}

// ResolveActive is the auth middleware hook: it fails unless the tenant
// exists and is active.
func (s *Service) ResolveActive(ctx context.Context, tenantID id.TenantID) error {
	tenant, err := s.store.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return derrors.New(derrors.CodeUnauthorized, "unknown tenant")
		}
		return derrors.Wrap(err, derrors.CodeInternal, "failed to load tenant")
	}
	if !tenant.IsActive() {
		return derrors.New(derrors.CodeForbidden, "tenant is inactive")
	}
	return nil
}

// Get returns tenant metadata.
func (s *Service) Get(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	tenant, err := s.store.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "tenant not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load tenant")
	}
	return tenant, nil
}

// Deactivate suspends a tenant. Every subsequent request fails at the auth
// middleware until reactivation.
func (s *Service) Deactivate(ctx context.Context, tenantID id.TenantID) error {
	return s.transition(ctx, tenantID, func(t *models.Tenant, now time.Time) error {
		if err := t.CanDeactivate(); err != nil {
			return err
		}
		t.ApplyDeactivation(now)
		return nil
	})
}

// Reactivate restores a suspended tenant.
func (s *Service) Reactivate(ctx context.Context, tenantID id.TenantID) error {
	return s.transition(ctx, tenantID, func(t *models.Tenant, now time.Time) error {
		if err := t.CanReactivate(); err != nil {
			return err
		}
		t.ApplyReactivation(now)
		return nil
	})
}

func (s *Service) transition(ctx context.Context, tenantID id.TenantID, apply func(*models.Tenant, time.Time) error) error {
	tenant, err := s.store.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return derrors.New(derrors.CodeNotFound, "tenant not found")
		}
		return derrors.Wrap(err, derrors.CodeInternal, "failed to load tenant")
	}
	if err := apply(tenant, requestcontext.Now(ctx)); err != nil {
		return err
	}
	if err := s.store.Update(ctx, tenant); err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "failed to update tenant")
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}

func (s *Service) incrementTenantCreated() {
	if s.metrics != nil {
		s.metrics.IncrementTenantCreated()
	}
}

func (s *Service) incrementTokenIssued() {
	if s.metrics != nil {
		s.metrics.IncrementTokenIssued()
	}
}

func (s *Service) incrementAuthFailure(reason string) {
	if s.metrics != nil {
		s.metrics.IncrementAuthFailure(reason)
	}
}

func (s *Service) observeAuthenticate(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveAuthenticate(start)
	}
}

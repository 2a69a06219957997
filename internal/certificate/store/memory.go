// Package store persists certificate metadata rows. Activation of a new
// certificate and revocation of the previous one happen in one step so a
// reader never observes two ACTIVE rows for the same (tenant, environment).
package store

import (
	"context"
	"sync"

	id "fatoora/pkg/domain"
	"fatoora/internal/certificate/models"
	"fatoora/pkg/platform/sentinel"
)

// InMemory is the map-backed certificate metadata store.
type InMemory struct {
	mu    sync.RWMutex
	certs map[id.CertificateID]*models.Certificate
}

func NewInMemory() *InMemory {
	return &InMemory{certs: make(map[id.CertificateID]*models.Certificate)}
}

// ActivateSwap inserts cert as ACTIVE and marks any previously active row
// for the same (tenant, environment) as REVOKED, atomically.
func (s *InMemory) ActivateSwap(_ context.Context, cert *models.Certificate) error {
	if cert == nil || !cert.IsActive() {
		return sentinel.ErrInvalidState
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.certs {
		if existing.TenantID == cert.TenantID && existing.Environment == cert.Environment && existing.IsActive() {
			existing.Status = models.CertificateStatusRevoked
		}
	}
	cp := *cert
	s.certs[cert.ID] = &cp
	return nil
}

// FindActive returns the single active certificate for (tenant, environment).
func (s *InMemory) FindActive(_ context.Context, tenantID id.TenantID, env id.Environment) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cert := range s.certs {
		if cert.TenantID == tenantID && cert.Environment == env && cert.IsActive() {
			cp := *cert
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// MarkExpired transitions an active row to EXPIRED when detected on a read
// path.
func (s *InMemory) MarkExpired(_ context.Context, certID id.CertificateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cert, ok := s.certs[certID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if cert.Status != models.CertificateStatusActive {
		return sentinel.ErrInvalidState
	}
	cert.Status = models.CertificateStatusExpired
	return nil
}

// ListByTenant returns all rows for a tenant, newest first not guaranteed.
func (s *InMemory) ListByTenant(_ context.Context, tenantID id.TenantID) ([]*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Certificate
	for _, cert := range s.certs {
		if cert.TenantID == tenantID {
			cp := *cert
			out = append(out, &cp)
		}
	}
	return out, nil
}

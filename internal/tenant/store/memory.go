package store

import (
	"context"
	"strings"
	"sync"

	"fatoora/internal/tenant/models"
	id "fatoora/pkg/domain"
	"fatoora/pkg/platform/sentinel"
)

// InMemory keeps tenants in process memory for unit tests and local runs.
type InMemory struct {
	mu      sync.RWMutex
	tenants map[id.TenantID]models.Tenant
}

func NewInMemory() *InMemory {
	return &InMemory{tenants: make(map[id.TenantID]models.Tenant)}
}

func (s *InMemory) CreateIfNameAvailable(_ context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tenants {
		if strings.EqualFold(existing.Name, tenant.Name) {
			return sentinel.ErrConflict
		}
	}
	s.tenants[tenant.ID] = *tenant
	return nil
}

func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tenant, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := tenant
	return &copied, nil
}

func (s *InMemory) Update(_ context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[tenant.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.tenants[tenant.ID] = *tenant
	return nil
}

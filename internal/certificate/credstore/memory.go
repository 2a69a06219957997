package credstore

import (
	"context"
	"sync"

	id "fatoora/pkg/domain"
	"fatoora/pkg/platform/sentinel"
)

type credKey struct {
	tenant id.TenantID
	env    id.Environment
}

// InMemory is the test double for Store.
type InMemory struct {
	mu    sync.RWMutex
	creds map[credKey]Credential
}

func NewInMemory() *InMemory {
	return &InMemory{creds: make(map[credKey]Credential)}
}

func (s *InMemory) Put(_ context.Context, tenantID id.TenantID, env id.Environment, cred Credential) error {
	if err := validateKeys(tenantID, env); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[credKey{tenantID, env}] = cred
	return nil
}

func (s *InMemory) Get(_ context.Context, tenantID id.TenantID, env id.Environment) (Credential, error) {
	if err := validateKeys(tenantID, env); err != nil {
		return Credential{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.creds[credKey{tenantID, env}]
	if !ok {
		return Credential{}, sentinel.ErrNotFound
	}
	return cred, nil
}

func (s *InMemory) Delete(_ context.Context, tenantID id.TenantID, env id.Environment) error {
	if err := validateKeys(tenantID, env); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, credKey{tenantID, env})
	return nil
}

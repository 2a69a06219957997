package store

import (
	"context"
	"sync"
	"time"

	"fatoora/internal/certificate/onboarding"
	id "fatoora/pkg/domain"
	"fatoora/pkg/platform/sentinel"
)

type memoryEntry struct {
	session   onboarding.Session
	expiresAt time.Time
}

// InMemory keeps sessions in process memory for unit tests.
type InMemory struct {
	mu      sync.RWMutex
	entries map[id.TenantID]memoryEntry
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[id.TenantID]memoryEntry)}
}

func (s *InMemory) Put(_ context.Context, session *onboarding.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[session.TenantID] = memoryEntry{session: *session, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *InMemory) Get(_ context.Context, tenantID id.TenantID) (*onboarding.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[tenantID]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, sentinel.ErrNotFound
	}
	session := entry.session
	return &session, nil
}

func (s *InMemory) Delete(_ context.Context, tenantID id.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, tenantID)
	return nil
}

package store

import (
	"context"
	"sort"
	"sync"

	"fatoora/internal/invoice/models"
	id "fatoora/pkg/domain"
	"fatoora/pkg/platform/sentinel"
)

type numberKey struct {
	tenantID id.TenantID
	number   string
}

// InMemory keeps invoices in process memory for unit tests. The
// compare-and-insert under one mutex mirrors the unique-constraint behavior
// of the Postgres store.
type InMemory struct {
	mu       sync.RWMutex
	byID     map[id.InvoiceID]models.Invoice
	byNumber map[numberKey]id.InvoiceID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[id.InvoiceID]models.Invoice),
		byNumber: make(map[numberKey]id.InvoiceID),
	}
}

func (s *InMemory) CreateIfAbsent(_ context.Context, inv *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := numberKey{tenantID: inv.TenantID, number: inv.InvoiceNumber}
	if _, exists := s.byNumber[key]; exists {
		return sentinel.ErrConflict
	}
	s.byNumber[key] = inv.ID
	s.byID[inv.ID] = *inv
	return nil
}

func (s *InMemory) Update(_ context.Context, inv *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[inv.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.byID[inv.ID] = *inv
	return nil
}

func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID, invoiceID id.InvoiceID) (*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.byID[invoiceID]
	if !ok || inv.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	copied := inv
	return &copied, nil
}

func (s *InMemory) FindByNumber(_ context.Context, tenantID id.TenantID, number string) (*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	invoiceID, ok := s.byNumber[numberKey{tenantID: tenantID, number: number}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	inv := s.byID[invoiceID]
	copied := inv
	return &copied, nil
}

// LatestChainHash returns the signed hash of the most recently cleared
// invoice for the tenant and environment.
func (s *InMemory) LatestChainHash(_ context.Context, tenantID id.TenantID, env id.Environment) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var candidates []models.Invoice
	for _, inv := range s.byID {
		if inv.TenantID == tenantID && inv.Environment == env && inv.SignedHash != "" {
			candidates = append(candidates, inv)
		}
	}
	if len(candidates) == 0 {
		return "", sentinel.ErrNotFound
	}
	sort.Slice(candidates, func(a, b int) bool {
		return candidates[a].UpdatedAt.Before(candidates[b].UpdatedAt)
	})
	return candidates[len(candidates)-1].SignedHash, nil
}

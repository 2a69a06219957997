package store

import (
	"context"
	"sync"

	"fatoora/internal/invoice/models"
	id "fatoora/pkg/domain"
	"fatoora/pkg/platform/sentinel"
)

// LogInMemory keeps processing log entries in process memory for unit tests.
type LogInMemory struct {
	mu      sync.RWMutex
	entries map[id.InvoiceID][]models.ProcessingLogEntry
}

func NewLogInMemory() *LogInMemory {
	return &LogInMemory{entries: make(map[id.InvoiceID][]models.ProcessingLogEntry)}
}

func (s *LogInMemory) Append(_ context.Context, entry *models.ProcessingLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.InvoiceID] = append(s.entries[entry.InvoiceID], *entry)
	return nil
}

func (s *LogInMemory) Latest(_ context.Context, invoiceID id.InvoiceID) (*models.ProcessingLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.entries[invoiceID]
	if len(entries) == 0 {
		return nil, sentinel.ErrNotFound
	}
	latest := entries[len(entries)-1]
	return &latest, nil
}

func (s *LogInMemory) ListByInvoice(_ context.Context, invoiceID id.InvoiceID) ([]models.ProcessingLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.entries[invoiceID]
	out := make([]models.ProcessingLogEntry, len(entries))
	copy(out, entries)
	return out, nil
}

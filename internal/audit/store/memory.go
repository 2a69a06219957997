package store

import (
	"context"
	"sync"

	"fatoora/internal/audit"
)

// InMemory keeps the outbox in process memory for unit tests and local runs.
type InMemory struct {
	mu        sync.RWMutex
	events    []audit.Event
	published map[string]bool
}

func NewInMemory() *InMemory {
	return &InMemory{published: make(map[string]bool)}
}

func (s *InMemory) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemory) FetchUnpublished(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if s.published[e.ID] {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemory) MarkPublished(_ context.Context, eventIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, eid := range eventIDs {
		s.published[eid] = true
	}
	return nil
}

// All returns every appended event in order. Test helper.
func (s *InMemory) All() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out
}

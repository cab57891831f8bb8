package audit

import (
	"context"
	"sync"

	id "placement/pkg/domain"
)

// InMemoryStore keeps audit events in process memory. Default sink when no
// Kafka brokers are configured.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByStudent(_ context.Context, studentID id.StudentID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

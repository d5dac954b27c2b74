package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore buffers outbox rows in memory for tests and dev mode.
type InMemoryStore struct {
	mu   sync.Mutex
	rows []Envelope
}

// NewMemory constructs an empty in-memory outbox.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, Envelope{
		ID:        uuid.New(),
		EventType: string(event.Action),
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (s *InMemoryStore) FetchBatch(_ context.Context, limit int) ([]Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.rows)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]Envelope, n)
	copy(out, s.rows[:n])
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, ids []uuid.UUID) error {
	drop := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	for _, row := range s.rows {
		if _, ok := drop[row.ID]; !ok {
			kept = append(kept, row)
		}
	}
	s.rows = kept
	return nil
}

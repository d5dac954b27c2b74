package auditlog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ghostlogin/internal/grant/models"
	"ghostlogin/pkg/platform/sentinel"

	"github.com/google/uuid"
)

// InMemoryStore keeps grant records in memory for tests and dev mode.
// All reads return clones so callers never observe a transition mid-flight;
// the mutex around Transition provides the same compare-and-swap guarantee
// the Postgres store gets from a conditional UPDATE.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*models.AuditRecord
}

// NewMemory constructs an empty in-memory grant store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[uuid.UUID]*models.AuditRecord)}
}

func (s *InMemoryStore) Create(_ context.Context, record *models.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	for _, existing := range s.records {
		if existing.Status == models.StatusPending && existing.TokenHash == record.TokenHash {
			return fmt.Errorf("pending grant with this hash exists: %w", sentinel.ErrInvalidState)
		}
	}
	s.records[record.ID] = record.Clone()
	return nil
}

func (s *InMemoryStore) FindPendingByHash(_ context.Context, hash string) (*models.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *models.AuditRecord
	for _, record := range s.records {
		if record.Status != models.StatusPending || record.TokenHash != hash {
			continue
		}
		if best == nil || record.CreatedAt.After(best.CreatedAt) {
			best = record
		}
	}
	if best == nil {
		return nil, fmt.Errorf("pending grant not found: %w", sentinel.ErrNotFound)
	}
	return best.Clone(), nil
}

func (s *InMemoryStore) Transition(_ context.Context, id uuid.UUID, to models.Status, usedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return fmt.Errorf("grant not found: %w", sentinel.ErrNotFound)
	}
	if record.Status != models.StatusPending {
		if record.Status == models.StatusSuccess {
			return fmt.Errorf("grant already redeemed: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("grant already %s: %w", record.Status, sentinel.ErrInvalidState)
	}

	record.Status = to
	if to == models.StatusSuccess && usedAt != nil {
		t := usedAt.UTC()
		record.UsedAt = &t
	}
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]*models.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.AuditRecord
	for _, record := range s.records {
		if filter.Status != nil && record.Status != *filter.Status {
			continue
		}
		if filter.From != nil && record.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && record.CreatedAt.After(*filter.To) {
			continue
		}
		out = append(out, record.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

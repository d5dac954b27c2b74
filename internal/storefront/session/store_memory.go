package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ghostlogin/pkg/platform/sentinel"
)

// InMemoryStore keeps sessions in memory for tests and dev mode.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemory constructs an empty in-memory session store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*Session)}
}

func (s *InMemoryStore) Create(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok || time.Now().UTC().After(session.ExpiresAt) {
		return nil, fmt.Errorf("session %s: %w", id, sentinel.ErrNotFound)
	}
	cp := *session
	return &cp, nil
}

func (s *InMemoryStore) Revoke(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, sentinel.ErrNotFound)
	}
	delete(s.sessions, id)
	return nil
}

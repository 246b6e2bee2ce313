package lockout

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps failure counts in process memory. Suitable for tests
// and single-instance deployments without Redis.
type InMemoryStore struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]*entry
	now     func() time.Time
}

type entry struct {
	count     int
	expiresAt time.Time
}

func NewInMemory(window time.Duration) *InMemoryStore {
	return &InMemoryStore{
		window:  window,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

func (s *InMemoryStore) RecordFailure(_ context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e, ok := s.entries[email]
	if !ok || now.After(e.expiresAt) {
		e = &entry{}
		s.entries[email] = e
	}
	e.count++
	e.expiresAt = now.Add(s.window)
	return e.count, nil
}

func (s *InMemoryStore) Clear(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, email)
	return nil
}

func (s *InMemoryStore) IsLocked(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[email]
	if !ok || s.now().After(e.expiresAt) {
		return false, nil
	}
	return e.count >= MaxFailures, nil
}

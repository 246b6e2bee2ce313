package store

import (
	"context"
	"sync"

	"opsconsole/internal/identity"
	"opsconsole/internal/operator/models"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[identity.ID]models.Profile
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[identity.ID]models.Profile)}
}

func (s *InMemoryStore) FindByID(_ context.Context, id identity.ID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[id]; ok {
		return &p, nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) Save(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = *profile
	return nil
}

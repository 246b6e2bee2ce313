package store

import (
	"context"
	"sort"
	"sync"

	"opsconsole/internal/admin/models"
	"opsconsole/internal/identity"
	dErrors "opsconsole/pkg/domainerrors"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	admins map[identity.ID]models.Admin
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{admins: make(map[identity.ID]models.Admin)}
}

func (s *InMemoryStore) FindByID(_ context.Context, id identity.ID) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.admins[id]; ok {
		return &a, nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Admin, 0, len(s.admins))
	for _, a := range s.admins {
		a := a
		if filter.matches(&a) {
			out = append(out, &a)
		}
	}
	// Newest first, the order the console lists them in.
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Time().After(out[j].CreatedAt.Time())
	})
	return out, nil
}

func (s *InMemoryStore) Create(_ context.Context, admin *models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[admin.ID]; ok {
		return dErrors.New(dErrors.CodeConflict, "admin profile already exists")
	}
	s.admins[admin.ID] = *admin
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, admin *models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[admin.ID]; !ok {
		return ErrNotFound
	}
	s.admins[admin.ID] = *admin
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id identity.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[id]; !ok {
		return ErrNotFound
	}
	delete(s.admins, id)
	return nil
}

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"opsconsole/internal/kyc/models"
	dErrors "opsconsole/pkg/domainerrors"
)

type InMemoryStore struct {
	mu          sync.RWMutex
	submissions map[uuid.UUID]models.Submission
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{submissions: make(map[uuid.UUID]models.Submission)}
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sub, ok := s.submissions[id]; ok {
		return &sub, nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Submission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		sub := sub
		if filter.matches(&sub) {
			out = append(out, &sub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Time().After(out[j].CreatedAt.Time())
	})
	return out, nil
}

func (s *InMemoryStore) Create(_ context.Context, submission *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[submission.ID]; ok {
		return dErrors.New(dErrors.CodeConflict, "submission already exists")
	}
	s.submissions[submission.ID] = *submission
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, submission *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[submission.ID]; !ok {
		return ErrNotFound
	}
	s.submissions[submission.ID] = *submission
	return nil
}

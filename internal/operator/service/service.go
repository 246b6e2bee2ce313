package service

import (
	"context"
	"errors"
	"log/slog"

	"opsconsole/internal/audit"
	"opsconsole/internal/identity"
	"opsconsole/internal/operator/models"
	"opsconsole/internal/operator/store"
	dErrors "opsconsole/pkg/domainerrors"
	"opsconsole/pkg/timestamp"
)

// Service manages the operator's own profile.
type Service struct {
	profiles  store.Store
	publisher *audit.Publisher
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher *audit.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func New(profiles store.Store, opts ...Option) *Service {
	s := &Service{profiles: profiles}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ensure creates the profile on first authorized sign-in if it does not
// exist yet, and returns it either way.
func (s *Service) Ensure(ctx context.Context, ident identity.Identity) (*models.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, ident.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load operator profile")
	}

	profile = &models.Profile{
		ID:        ident.ID,
		Email:     ident.Email,
		CreatedAt: timestamp.Now(),
	}
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create operator profile")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "operator profile created", "operator_id", ident.ID.String())
	}
	return profile, nil
}

func (s *Service) Get(ctx context.Context, id identity.ID) (*models.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "operator profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load operator profile")
	}
	return profile, nil
}

// Update applies self-service edits and stamps updatedAt.
func (s *Service) Update(ctx context.Context, id identity.ID, req models.UpdateRequest) (*models.Profile, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	profile.Name = req.Name
	profile.Mobile = req.Mobile
	profile.Address = req.Address
	profile.UpdatedAt = timestamp.Now()

	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update operator profile")
	}
	if s.publisher != nil {
		_ = s.publisher.Emit(ctx, audit.Event{
			Action:  audit.ActionOperatorProfileSaved,
			ActorID: id.String(),
			Subject: profile.Email,
		})
	}
	return profile, nil
}

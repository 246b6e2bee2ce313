// Package service implements administrator profile management. Creation is
// not here on purpose: profiles come into existence only through the
// provisioning workflow.
package service

import (
	"context"
	"errors"
	"log/slog"

	"opsconsole/internal/admin/models"
	"opsconsole/internal/admin/store"
	"opsconsole/internal/audit"
	"opsconsole/internal/identity"
	dErrors "opsconsole/pkg/domainerrors"
	"opsconsole/pkg/requestcontext"
)

type Service struct {
	admins    store.Store
	publisher *audit.Publisher
	logger    *slog.Logger
}

type Option func(*Service)

func WithAuditPublisher(publisher *audit.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(admins store.Store, opts ...Option) *Service {
	s := &Service{admins: admins}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Get(ctx context.Context, id identity.ID) (*models.Admin, error) {
	admin, err := s.admins.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "admin not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load admin")
	}
	return admin, nil
}

// List returns profiles, optionally narrowed to one parent company. The
// literal "All" (and an empty filter) means no narrowing.
func (s *Service) List(ctx context.Context, parentCompany string) ([]*models.Admin, error) {
	if parentCompany != "" && parentCompany != models.ParentCompanyAll {
		if _, err := models.ParseParentCompany(parentCompany); err != nil {
			return nil, err
		}
	}
	admins, err := s.admins.List(ctx, store.Filter{ParentCompany: parentCompany})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list admins")
	}
	return admins, nil
}

func (s *Service) Update(ctx context.Context, id identity.ID, req models.UpdateRequest) (*models.Admin, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	admin, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	admin.Name = req.Name
	admin.Mobile = req.Mobile
	admin.Address = req.Address
	admin.Company = req.Company
	admin.ParentCompany = models.ParentCompany(req.ParentCompany)
	admin.Department = req.Department
	admin.Designation = req.Designation
	admin.Availability = req.Availability

	if err := s.admins.Update(ctx, admin); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "admin not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update admin")
	}

	s.emit(ctx, audit.Event{
		Action:  audit.ActionAdminUpdated,
		ActorID: requestcontext.ActorID(ctx),
		Subject: admin.Email,
	})
	return admin, nil
}

// Delete removes the profile row only. The provider identity stays behind:
// the provider cannot delete an identity that does not hold the current
// session, so a deleted admin can still authenticate until the identity is
// cleaned up out of band.
func (s *Service) Delete(ctx context.Context, id identity.ID) error {
	admin, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.admins.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "admin not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete admin")
	}

	if s.logger != nil {
		s.logger.WarnContext(ctx, "admin profile deleted, provider identity remains",
			"admin_id", id.String(),
			"admin_email", admin.Email,
		)
	}
	s.emit(ctx, audit.Event{
		Action:  audit.ActionAdminDeleted,
		ActorID: requestcontext.ActorID(ctx),
		Subject: admin.Email,
		Detail:  "identity not deleted",
	})
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.publisher != nil {
		_ = s.publisher.Emit(ctx, event)
	}
}

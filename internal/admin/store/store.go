package store

import (
	"context"

	"opsconsole/internal/admin/models"
	"opsconsole/internal/identity"
	dErrors "opsconsole/pkg/domainerrors"
)

// ErrNotFound is shared by both implementations.
var ErrNotFound = dErrors.ErrNotFound

// Filter narrows List. A zero Filter (or ParentCompany "All") matches
// everything.
type Filter struct {
	ParentCompany string
}

func (f Filter) matches(admin *models.Admin) bool {
	if f.ParentCompany == "" || f.ParentCompany == models.ParentCompanyAll {
		return true
	}
	return string(admin.ParentCompany) == f.ParentCompany
}

// Store persists administrator profiles.
type Store interface {
	FindByID(ctx context.Context, id identity.ID) (*models.Admin, error)
	List(ctx context.Context, filter Filter) ([]*models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
	Update(ctx context.Context, admin *models.Admin) error
	Delete(ctx context.Context, id identity.ID) error
}

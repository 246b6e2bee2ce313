package store

import (
	"context"

	"opsconsole/internal/identity"
	"opsconsole/internal/operator/models"
	dErrors "opsconsole/pkg/domainerrors"
)

// ErrNotFound is shared by both implementations.
var ErrNotFound = dErrors.ErrNotFound

// Store persists the single operator profile row.
type Store interface {
	FindByID(ctx context.Context, id identity.ID) (*models.Profile, error)
	Save(ctx context.Context, profile *models.Profile) error
}

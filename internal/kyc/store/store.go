package store

import (
	"context"

	"github.com/google/uuid"

	"opsconsole/internal/kyc/models"
	dErrors "opsconsole/pkg/domainerrors"
)

// ErrNotFound is shared by both implementations.
var ErrNotFound = dErrors.ErrNotFound

// Filter narrows List to one status. Zero value matches everything.
type Filter struct {
	Status models.Status
}

func (f Filter) matches(s *models.Submission) bool {
	return f.Status == "" || s.Status == f.Status
}

// Store persists KYC submissions. There is no Delete: submissions are kept
// for the life of the system.
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	List(ctx context.Context, filter Filter) ([]*models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsconsole/internal/identity"
	"opsconsole/internal/operator/models"
	"opsconsole/internal/operator/store"
	dErrors "opsconsole/pkg/domainerrors"
)

func operatorIdentity() identity.Identity {
	return identity.Identity{ID: identity.NewID(), Email: "ops@example.com"}
}

func TestEnsureCreatesOnFirstSignIn(t *testing.T) {
	profiles := store.NewMemory()
	svc := New(profiles)
	ident := operatorIdentity()

	created, err := svc.Ensure(context.Background(), ident)
	require.NoError(t, err)
	assert.Equal(t, ident.ID, created.ID)
	assert.Equal(t, ident.Email, created.Email)
	assert.False(t, created.CreatedAt.IsZero())

	// A second sign-in returns the same row untouched.
	again, err := svc.Ensure(context.Background(), ident)
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, again.CreatedAt)
}

func TestUpdateStampsUpdatedAt(t *testing.T) {
	profiles := store.NewMemory()
	svc := New(profiles)
	ident := operatorIdentity()
	_, err := svc.Ensure(context.Background(), ident)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), ident.ID, models.UpdateRequest{
		Name:    "Operations Lead",
		Mobile:  "9000000000",
		Address: "Pune",
	})
	require.NoError(t, err)
	assert.Equal(t, "Operations Lead", updated.Name)
	assert.False(t, updated.UpdatedAt.IsZero())

	_, err = svc.Update(context.Background(), ident.ID, models.UpdateRequest{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "name is required")
}

func TestUpdateMissingProfile(t *testing.T) {
	svc := New(store.NewMemory())
	_, err := svc.Update(context.Background(), identity.NewID(), models.UpdateRequest{Name: "X"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsconsole/internal/admin/models"
	"opsconsole/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	s := NewPostgres(pg.Pool)

	truncate := func() {
		require.NoError(t, pg.TruncateTables(ctx, "admins"))
	}

	t.Run("create and find round-trips all fields", func(t *testing.T) {
		truncate()
		admin := newAdmin("round@example.com", models.ParentTirupati, time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC))
		admin.Mobile = "9999999999"
		admin.Company = "Tirupati Services Pune"
		admin.Department = "Housekeeping"
		admin.Designation = "Site Manager"
		admin.Availability = "Yes"
		require.NoError(t, s.Create(ctx, admin))

		got, err := s.FindByID(ctx, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, admin.Email, got.Email)
		assert.Equal(t, admin.Mobile, got.Mobile)
		assert.Equal(t, admin.ParentCompany, got.ParentCompany)
		assert.Equal(t, admin.Availability, got.Availability)
		assert.True(t, admin.CreatedAt.Equal(got.CreatedAt))
		assert.True(t, got.LastLoginAt.IsZero())
	})

	t.Run("find missing returns ErrNotFound", func(t *testing.T) {
		truncate()
		admin := newAdmin("gone@example.com", models.ParentTirupati, time.Now())
		_, err := s.FindByID(ctx, admin.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list filters by parent company, newest first", func(t *testing.T) {
		truncate()
		base := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
		older := newAdmin("older@example.com", models.ParentMaxline, base)
		newer := newAdmin("newer@example.com", models.ParentMaxline, base.Add(time.Hour))
		other := newAdmin("other@example.com", models.ParentTirupati, base)
		for _, a := range []*models.Admin{older, newer, other} {
			require.NoError(t, s.Create(ctx, a))
		}

		maxline, err := s.List(ctx, Filter{ParentCompany: string(models.ParentMaxline)})
		require.NoError(t, err)
		require.Len(t, maxline, 2)
		assert.Equal(t, "newer@example.com", maxline[0].Email)

		all, err := s.List(ctx, Filter{ParentCompany: models.ParentCompanyAll})
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("update and delete", func(t *testing.T) {
		truncate()
		admin := newAdmin("upd@example.com", models.ParentTirupati, time.Now())
		require.NoError(t, s.Create(ctx, admin))

		admin.Name = "Renamed"
		admin.Department = "Payroll"
		require.NoError(t, s.Update(ctx, admin))

		got, err := s.FindByID(ctx, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
		assert.Equal(t, "Payroll", got.Department)

		require.NoError(t, s.Delete(ctx, admin.ID))
		assert.ErrorIs(t, s.Delete(ctx, admin.ID), ErrNotFound)

		missing := newAdmin("never@example.com", models.ParentTirupati, time.Now())
		assert.ErrorIs(t, s.Update(ctx, missing), ErrNotFound)
	})
}

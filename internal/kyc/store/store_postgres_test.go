//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsconsole/internal/kyc/models"
	"opsconsole/pkg/testutil/containers"
	"opsconsole/pkg/timestamp"
)

func TestPostgresStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	s := NewPostgres(pg.Pool)

	truncate := func() {
		require.NoError(t, pg.TruncateTables(ctx, "kyc_submissions"))
	}

	fullSubmission := func(created time.Time) *models.Submission {
		return &models.Submission{
			ID:      uuid.New(),
			OwnerID: "field-user-1",
			PersonalInfo: models.PersonalInfo{
				Name:        "Ramesh Kumar",
				DateOfBirth: "15 May 2002",
				Gender:      "Male",
				Phone:       "9876543210",
				State:       "Maharashtra",
			},
			ProfessionalInfo: models.ProfessionalInfo{
				CompanyName: "Maxline Facilities",
				Designation: "Supervisor",
				PanNumber:   "ABCDE1234F",
			},
			BankInfo: models.BankInfo{
				BankName:      "SBI",
				AccountNumber: "123456789",
				IfscCode:      "SBIN0001234",
			},
			DocumentInfo: models.DocumentInfo{
				AadharCardURL: "https://files.example.com/aadhar/1.jpg",
			},
			Status:    models.StatusPending,
			CreatedAt: timestamp.New(created),
		}
	}

	t.Run("round-trips nested sections", func(t *testing.T) {
		truncate()
		sub := fullSubmission(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
		require.NoError(t, s.Create(ctx, sub))

		got, err := s.FindByID(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, sub.PersonalInfo, got.PersonalInfo)
		assert.Equal(t, sub.ProfessionalInfo, got.ProfessionalInfo)
		assert.Equal(t, sub.BankInfo, got.BankInfo)
		assert.Equal(t, sub.DocumentInfo, got.DocumentInfo)
		assert.Equal(t, models.StatusPending, got.Status)
		assert.True(t, got.VerifiedAt.IsZero())
		assert.True(t, sub.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("missing submission", func(t *testing.T) {
		truncate()
		_, err := s.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("status transition persists and filters", func(t *testing.T) {
		truncate()
		sub := fullSubmission(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
		require.NoError(t, s.Create(ctx, sub))
		other := fullSubmission(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
		other.ID = uuid.New()
		require.NoError(t, s.Create(ctx, other))

		now := timestamp.New(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))
		require.True(t, sub.ApplyStatus(models.StatusVerified, "ok", "ops@example.com", now))
		require.NoError(t, s.Update(ctx, sub))

		verified, err := s.List(ctx, Filter{Status: models.StatusVerified})
		require.NoError(t, err)
		require.Len(t, verified, 1)
		assert.True(t, verified[0].Verified)
		assert.True(t, now.Equal(verified[0].VerifiedAt))
		assert.Equal(t, "ops@example.com", verified[0].VerifiedBy)

		all, err := s.List(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, other.ID, all[0].ID, "newest first")
	})

	t.Run("update missing submission", func(t *testing.T) {
		truncate()
		sub := fullSubmission(time.Now())
		assert.ErrorIs(t, s.Update(ctx, sub), ErrNotFound)
	})
}

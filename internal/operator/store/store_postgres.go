package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"opsconsole/internal/identity"
	"opsconsole/internal/operator/models"
	"opsconsole/pkg/timestamp"
)

// PostgresStore persists the operator profile in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) FindByID(ctx context.Context, id identity.ID) (*models.Profile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, email, mobile, address, created_at, updated_at
		FROM operators WHERE id = $1`, id.String())

	var (
		p         models.Profile
		rawID     string
		createdAt timestamp.Timestamp
		updatedAt timestamp.Timestamp
	)
	err := row.Scan(&rawID, &p.Name, &p.Email, &p.Mobile, &p.Address, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find operator profile: %w", err)
	}
	p.ID, err = identity.ParseID(rawID)
	if err != nil {
		return nil, fmt.Errorf("find operator profile: %w", err)
	}
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	return &p, nil
}

func (s *PostgresStore) Save(ctx context.Context, profile *models.Profile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO operators (id, name, email, mobile, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			mobile = EXCLUDED.mobile,
			address = EXCLUDED.address,
			updated_at = EXCLUDED.updated_at`,
		profile.ID.String(), profile.Name, profile.Email, profile.Mobile,
		profile.Address, profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save operator profile: %w", err)
	}
	return nil
}

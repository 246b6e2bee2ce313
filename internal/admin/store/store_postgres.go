package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"opsconsole/internal/admin/models"
	"opsconsole/internal/identity"
	"opsconsole/pkg/timestamp"
)

// PostgresStore persists administrator profiles in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const adminColumns = `id, name, email, mobile, address, company, parent_company,
	department, designation, availability, created_at, last_login_at`

func (s *PostgresStore) FindByID(ctx context.Context, id identity.ID) (*models.Admin, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE id = $1`, id.String())
	admin, err := scanAdmin(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return admin, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins`
	args := []any{}
	if filter.ParentCompany != "" && filter.ParentCompany != models.ParentCompanyAll {
		query += ` WHERE parent_company = $1`
		args = append(args, filter.ParentCompany)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var admins []*models.Admin
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("list admins: %w", err)
		}
		admins = append(admins, admin)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

func (s *PostgresStore) Create(ctx context.Context, admin *models.Admin) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO admins (`+adminColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		admin.ID.String(), admin.Name, admin.Email, admin.Mobile, admin.Address,
		admin.Company, string(admin.ParentCompany), admin.Department,
		admin.Designation, admin.Availability, admin.CreatedAt, admin.LastLoginAt)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, admin *models.Admin) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE admins SET
			name = $2, mobile = $3, address = $4, company = $5,
			parent_company = $6, department = $7, designation = $8,
			availability = $9, last_login_at = $10
		WHERE id = $1`,
		admin.ID.String(), admin.Name, admin.Mobile, admin.Address, admin.Company,
		string(admin.ParentCompany), admin.Department, admin.Designation,
		admin.Availability, admin.LastLoginAt)
	if err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id identity.ID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM admins WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAdmin(row pgx.Row) (*models.Admin, error) {
	var (
		admin         models.Admin
		rawID         string
		parentCompany string
		createdAt     timestamp.Timestamp
		lastLoginAt   timestamp.Timestamp
	)
	err := row.Scan(&rawID, &admin.Name, &admin.Email, &admin.Mobile,
		&admin.Address, &admin.Company, &parentCompany, &admin.Department,
		&admin.Designation, &admin.Availability, &createdAt, &lastLoginAt)
	if err != nil {
		return nil, err
	}
	admin.ID, err = identity.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	admin.ParentCompany = models.ParentCompany(parentCompany)
	admin.CreatedAt = createdAt
	admin.LastLoginAt = lastLoginAt
	return &admin, nil
}

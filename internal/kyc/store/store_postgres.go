package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"opsconsole/internal/kyc/models"
	"opsconsole/pkg/timestamp"
)

// PostgresStore keeps the four nested sections as JSONB columns; the
// console filters on status and searches in memory, so the nested fields
// never need their own columns.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const kycColumns = `id, owner_id, personal_info, professional_info, bank_info,
	document_info, status, verified, remarks, created_at, verified_at,
	verified_by, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+kycColumns+` FROM kyc_submissions WHERE id = $1`, id.String())
	sub, err := scanSubmission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find kyc submission: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*models.Submission, error) {
	query := `SELECT ` + kycColumns + ` FROM kyc_submissions`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list kyc submissions: %w", err)
	}
	defer rows.Close()

	var subs []*models.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("list kyc submissions: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list kyc submissions: %w", err)
	}
	return subs, nil
}

func (s *PostgresStore) Create(ctx context.Context, sub *models.Submission) error {
	personal, professional, bank, document, err := encodeSections(sub)
	if err != nil {
		return fmt.Errorf("create kyc submission: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO kyc_submissions (`+kycColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		sub.ID.String(), sub.OwnerID, personal, professional, bank, document,
		string(sub.Status), sub.Verified, sub.Remarks, sub.CreatedAt,
		sub.VerifiedAt, sub.VerifiedBy, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create kyc submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, sub *models.Submission) error {
	personal, professional, bank, document, err := encodeSections(sub)
	if err != nil {
		return fmt.Errorf("update kyc submission: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE kyc_submissions SET
			personal_info = $2, professional_info = $3, bank_info = $4,
			document_info = $5, status = $6, verified = $7, remarks = $8,
			verified_at = $9, verified_by = $10, updated_at = $11
		WHERE id = $1`,
		sub.ID.String(), personal, professional, bank, document,
		string(sub.Status), sub.Verified, sub.Remarks,
		sub.VerifiedAt, sub.VerifiedBy, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update kyc submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func encodeSections(sub *models.Submission) (personal, professional, bank, document []byte, err error) {
	if personal, err = json.Marshal(sub.PersonalInfo); err != nil {
		return
	}
	if professional, err = json.Marshal(sub.ProfessionalInfo); err != nil {
		return
	}
	if bank, err = json.Marshal(sub.BankInfo); err != nil {
		return
	}
	document, err = json.Marshal(sub.DocumentInfo)
	return
}

func scanSubmission(row pgx.Row) (*models.Submission, error) {
	var (
		sub          models.Submission
		rawID        string
		status       string
		personal     []byte
		professional []byte
		bank         []byte
		document     []byte
		createdAt    timestamp.Timestamp
		verifiedAt   timestamp.Timestamp
		updatedAt    timestamp.Timestamp
	)
	err := row.Scan(&rawID, &sub.OwnerID, &personal, &professional, &bank,
		&document, &status, &sub.Verified, &sub.Remarks, &createdAt,
		&verifiedAt, &sub.VerifiedBy, &updatedAt)
	if err != nil {
		return nil, err
	}
	if sub.ID, err = uuid.Parse(rawID); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(personal, &sub.PersonalInfo); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(professional, &sub.ProfessionalInfo); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(bank, &sub.BankInfo); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(document, &sub.DocumentInfo); err != nil {
		return nil, err
	}
	sub.Status = models.Status(status)
	sub.CreatedAt = createdAt
	sub.VerifiedAt = verifiedAt
	sub.UpdatedAt = updatedAt
	return &sub, nil
}

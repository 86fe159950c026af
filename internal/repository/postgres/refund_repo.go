package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"clubstack/internal/domain"
)

type refundRepository struct {
	DB *sql.DB
}

func NewRefundRepository(db *sql.DB) domain.RefundRepository {
	return &refundRepository{DB: db}
}

const refundColumns = `id, registration_id, amount, currency, reason, status, provider_refund_id, processed_by, processed_at, created_at, updated_at`

func scanRefund(row interface{ Scan(dest ...any) error }) (*domain.Refund, error) {
	ref := &domain.Refund{}
	var providerRefundID, processedBy sql.NullString
	var processedAt sql.NullTime
	err := row.Scan(
		&ref.ID, &ref.RegistrationID, &ref.Amount, &ref.Currency, &ref.Reason,
		&ref.Status, &providerRefundID, &processedBy, &processedAt,
		&ref.CreatedAt, &ref.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if providerRefundID.Valid {
		ref.ProviderRefundID = &providerRefundID.String
	}
	if processedBy.Valid {
		ref.ProcessedBy = &processedBy.String
	}
	if processedAt.Valid {
		ref.ProcessedAt = &processedAt.Time
	}
	return ref, nil
}

func (r *refundRepository) Create(ctx context.Context, tx domain.Tx, ref *domain.Refund) error {
	query := `
		INSERT INTO refunds (registration_id, amount, currency, reason, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return q(r.DB, tx).QueryRowContext(ctx, query,
		ref.RegistrationID, ref.Amount, ref.Currency, ref.Reason, ref.Status,
		ref.CreatedAt, ref.UpdatedAt,
	).Scan(&ref.ID)
}

func (r *refundRepository) GetByID(ctx context.Context, tx domain.Tx, id string) (*domain.Refund, error) {
	query := `
		SELECT ` + refundColumns + `
		FROM refunds
		WHERE id = $1
	`
	ref, err := scanRefund(q(r.DB, tx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return ref, nil
}

func (r *refundRepository) GetByRegistrationID(ctx context.Context, tx domain.Tx, registrationID string) (*domain.Refund, error) {
	query := `
		SELECT ` + refundColumns + `
		FROM refunds
		WHERE registration_id = $1
	`
	ref, err := scanRefund(q(r.DB, tx).QueryRowContext(ctx, query, registrationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return ref, nil
}

func (r *refundRepository) UpdateStatus(ctx context.Context, tx domain.Tx, id string, to domain.RefundStatus, providerRefundID, processedBy *string, processedAt *time.Time) error {
	query := `
		UPDATE refunds
		SET status = $1,
			provider_refund_id = COALESCE($2, provider_refund_id),
			processed_by = COALESCE($3, processed_by),
			processed_at = COALESCE($4, processed_at),
			updated_at = NOW()
		WHERE id = $5
	`
	result, err := q(r.DB, tx).ExecContext(ctx, query, to, providerRefundID, processedBy, processedAt, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"

	"clubstack/internal/domain"
)

type interestRepository struct {
	DB *sql.DB
}

func NewInterestRepository(db *sql.DB) domain.InterestRepository {
	return &interestRepository{DB: db}
}

func (r *interestRepository) Create(ctx context.Context, tx domain.Tx, in *domain.Interest) error {
	query := `
		INSERT INTO workshop_interest (workshop_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (workshop_id, user_id) DO NOTHING
		RETURNING id
	`
	err := q(r.DB, tx).QueryRowContext(ctx, query, in.WorkshopID, in.UserID, in.CreatedAt).Scan(&in.ID)
	if errors.Is(err, sql.ErrNoRows) {
		// DO NOTHING suppressed a concurrent duplicate, so RETURNING
		// produced no row. The interest already exists.
		return nil
	}
	return err
}

func (r *interestRepository) DeleteByWorkshopAndUser(ctx context.Context, tx domain.Tx, workshopID, userID string) (bool, error) {
	query := `DELETE FROM workshop_interest WHERE workshop_id = $1 AND user_id = $2`
	result, err := q(r.DB, tx).ExecContext(ctx, query, workshopID, userID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *interestRepository) ListByWorkshop(ctx context.Context, tx domain.Tx, workshopID string) ([]*domain.Interest, error) {
	query := `
		SELECT id, workshop_id, user_id, created_at
		FROM workshop_interest
		WHERE workshop_id = $1
		ORDER BY created_at ASC
	`
	rows, err := q(r.DB, tx).QueryContext(ctx, query, workshopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	interests := make([]*domain.Interest, 0)
	for rows.Next() {
		in := &domain.Interest{}
		if err := rows.Scan(&in.ID, &in.WorkshopID, &in.UserID, &in.CreatedAt); err != nil {
			return nil, err
		}
		interests = append(interests, in)
	}
	return interests, rows.Err()
}

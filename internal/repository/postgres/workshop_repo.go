package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"clubstack/internal/domain"
)

type workshopRepository struct {
	DB *sql.DB
}

func NewWorkshopRepository(db *sql.DB) domain.WorkshopRepository {
	return &workshopRepository{DB: db}
}

const workshopColumns = `id, title, location, starts_at, ends_at, max_capacity, price_member, price_non_member, currency, visibility, refund_days, status, created_by, created_at, updated_at`

func scanWorkshop(row interface{ Scan(dest ...any) error }) (*domain.Workshop, error) {
	w := &domain.Workshop{}
	var refundDays sql.NullInt64
	err := row.Scan(
		&w.ID, &w.Title, &w.Location, &w.StartsAt, &w.EndsAt, &w.MaxCapacity,
		&w.PriceMember, &w.PriceNonMember, &w.Currency, &w.Visibility,
		&refundDays, &w.Status, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if refundDays.Valid {
		d := int(refundDays.Int64)
		w.RefundDays = &d
	}
	return w, nil
}

func (r *workshopRepository) Create(ctx context.Context, tx domain.Tx, w *domain.Workshop) error {
	query := `
		INSERT INTO workshops (title, location, starts_at, ends_at, max_capacity, price_member, price_non_member, currency, visibility, refund_days, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	var refundDays any
	if w.RefundDays != nil {
		refundDays = *w.RefundDays
	}
	return q(r.DB, tx).QueryRowContext(ctx, query,
		w.Title, w.Location, w.StartsAt, w.EndsAt, w.MaxCapacity,
		w.PriceMember, w.PriceNonMember, w.Currency, w.Visibility,
		refundDays, w.Status, w.CreatedBy, w.CreatedAt, w.UpdatedAt,
	).Scan(&w.ID)
}

func (r *workshopRepository) GetByID(ctx context.Context, tx domain.Tx, id string) (*domain.Workshop, error) {
	query := `
		SELECT ` + workshopColumns + `
		FROM workshops
		WHERE id = $1
	`
	w, err := scanWorkshop(q(r.DB, tx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

func (r *workshopRepository) List(ctx context.Context, tx domain.Tx, includeMembersOnly bool) ([]*domain.Workshop, error) {
	query := `
		SELECT ` + workshopColumns + `
		FROM workshops
		WHERE visibility = 'public'
		ORDER BY starts_at ASC
	`
	if includeMembersOnly {
		query = `
		SELECT ` + workshopColumns + `
		FROM workshops
		ORDER BY starts_at ASC
	`
	}
	rows, err := q(r.DB, tx).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workshops := make([]*domain.Workshop, 0)
	for rows.Next() {
		w, err := scanWorkshop(rows)
		if err != nil {
			return nil, err
		}
		workshops = append(workshops, w)
	}
	return workshops, rows.Err()
}

func (r *workshopRepository) Update(ctx context.Context, tx domain.Tx, id string, patch domain.WorkshopPatch) (*domain.Workshop, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	n := 1
	add := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.StartsAt != nil {
		add("starts_at", *patch.StartsAt)
	}
	if patch.EndsAt != nil {
		add("ends_at", *patch.EndsAt)
	}
	if patch.MaxCapacity != nil {
		add("max_capacity", *patch.MaxCapacity)
	}
	if patch.PriceMember != nil {
		add("price_member", *patch.PriceMember)
	}
	if patch.PriceNonMember != nil {
		add("price_non_member", *patch.PriceNonMember)
	}
	if patch.Visibility != nil {
		add("visibility", *patch.Visibility)
	}
	if patch.RefundDays != nil {
		add("refund_days", *patch.RefundDays)
	}
	if n == 1 {
		return r.GetByID(ctx, tx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE workshops SET %s
		WHERE id = $%d
		RETURNING `+workshopColumns+`
	`, strings.Join(setClauses, ", "), n)
	w, err := scanWorkshop(q(r.DB, tx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

func (r *workshopRepository) UpdateStatus(ctx context.Context, tx domain.Tx, id string, from, to domain.WorkshopStatus) error {
	query := `
		UPDATE workshops
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`
	result, err := q(r.DB, tx).ExecContext(ctx, query, to, id, from)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return r.distinguishMiss(ctx, tx, id)
	}
	return nil
}

func (r *workshopRepository) Delete(ctx context.Context, tx domain.Tx, id string, from domain.WorkshopStatus) error {
	query := `DELETE FROM workshops WHERE id = $1 AND status = $2`
	result, err := q(r.DB, tx).ExecContext(ctx, query, id, from)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return r.distinguishMiss(ctx, tx, id)
	}
	return nil
}

// distinguishMiss tells "row does not exist" apart from "row exists in another
// status" after a conditioned write matched nothing.
func (r *workshopRepository) distinguishMiss(ctx context.Context, tx domain.Tx, id string) error {
	var exists bool
	err := q(r.DB, tx).QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM workshops WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrWrongState
	}
	return domain.ErrNotFound
}

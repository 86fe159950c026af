package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"clubstack/internal/domain"
)

type registrationRepository struct {
	DB *sql.DB
}

func NewRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &registrationRepository{DB: db}
}

const registrationColumns = `id, workshop_id, member_id, external_name, external_email, status, amount_paid, currency, stripe_checkout_session_id, registered_at, confirmed_at, cancelled_at, attendance_status, attendance_marked_by, attendance_marked_at, attendance_notes`

func scanRegistration(row interface{ Scan(dest ...any) error }) (*domain.Registration, error) {
	reg := &domain.Registration{}
	var memberID, externalName, externalEmail, sessionID sql.NullString
	var confirmedAt, cancelledAt sql.NullTime
	var attStatus, attMarkedBy, attNotes sql.NullString
	var attMarkedAt sql.NullTime
	err := row.Scan(
		&reg.ID, &reg.WorkshopID, &memberID, &externalName, &externalEmail,
		&reg.Status, &reg.AmountPaid, &reg.Currency, &sessionID,
		&reg.RegisteredAt, &confirmedAt, &cancelledAt,
		&attStatus, &attMarkedBy, &attMarkedAt, &attNotes,
	)
	if err != nil {
		return nil, err
	}
	if memberID.Valid {
		reg.MemberID = &memberID.String
	}
	if externalName.Valid {
		reg.ExternalName = &externalName.String
	}
	if externalEmail.Valid {
		reg.ExternalEmail = &externalEmail.String
	}
	if sessionID.Valid {
		reg.CheckoutSessionID = &sessionID.String
	}
	if confirmedAt.Valid {
		reg.ConfirmedAt = &confirmedAt.Time
	}
	if cancelledAt.Valid {
		reg.CancelledAt = &cancelledAt.Time
	}
	if attStatus.Valid {
		s := domain.AttendanceStatus(attStatus.String)
		reg.AttendanceStatus = &s
	}
	if attMarkedBy.Valid {
		reg.AttendanceMarkedBy = &attMarkedBy.String
	}
	if attMarkedAt.Valid {
		reg.AttendanceMarkedAt = &attMarkedAt.Time
	}
	if attNotes.Valid {
		reg.AttendanceNotes = &attNotes.String
	}
	return reg, nil
}

func (r *registrationRepository) Create(ctx context.Context, tx domain.Tx, reg *domain.Registration) error {
	query := `
		INSERT INTO registrations (workshop_id, member_id, external_name, external_email, status, amount_paid, currency, stripe_checkout_session_id, registered_at, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return q(r.DB, tx).QueryRowContext(ctx, query,
		reg.WorkshopID, reg.MemberID, reg.ExternalName, reg.ExternalEmail,
		reg.Status, reg.AmountPaid, reg.Currency, reg.CheckoutSessionID,
		reg.RegisteredAt, reg.ConfirmedAt,
	).Scan(&reg.ID)
}

func (r *registrationRepository) GetByID(ctx context.Context, tx domain.Tx, id string) (*domain.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE id = $1
	`
	reg, err := scanRegistration(q(r.DB, tx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) GetActiveByWorkshopAndMember(ctx context.Context, tx domain.Tx, workshopID, memberID string) (*domain.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE workshop_id = $1 AND member_id = $2 AND status = ANY($3)
	`
	reg, err := scanRegistration(q(r.DB, tx).QueryRowContext(ctx, query, workshopID, memberID, pq.Array(activeStatuses())))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) CountActiveByWorkshop(ctx context.Context, tx domain.Tx, workshopID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM registrations
		WHERE workshop_id = $1 AND status = ANY($2)
	`
	var count int
	err := q(r.DB, tx).QueryRowContext(ctx, query, workshopID, pq.Array(activeStatuses())).Scan(&count)
	return count, err
}

func (r *registrationRepository) CountByWorkshop(ctx context.Context, tx domain.Tx, workshopID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM registrations
		WHERE workshop_id = $1
	`
	var count int
	err := q(r.DB, tx).QueryRowContext(ctx, query, workshopID).Scan(&count)
	return count, err
}

func (r *registrationRepository) ListPaidByWorkshop(ctx context.Context, tx domain.Tx, workshopID string) ([]*domain.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE workshop_id = $1 AND stripe_checkout_session_id IS NOT NULL
		ORDER BY registered_at ASC
	`
	return r.list(ctx, tx, query, workshopID)
}

func (r *registrationRepository) ListAttendees(ctx context.Context, tx domain.Tx, workshopID string) ([]*domain.Attendee, error) {
	query := `
		SELECT ` + prefixedRegistrationColumns("r") + `,
			COALESCE(NULLIF(TRIM(CONCAT(u.name, ' ', u.last_name)), ''), r.external_name, u.email, r.external_email, '') AS display_name,
			COALESCE(u.email, r.external_email, '') AS email
		FROM registrations r
		LEFT JOIN users u ON u.id = r.member_id
		WHERE r.workshop_id = $1 AND r.status = ANY($2)
		ORDER BY r.registered_at ASC
	`
	rows, err := q(r.DB, tx).QueryContext(ctx, query, workshopID, pq.Array(activeStatuses()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attendees := make([]*domain.Attendee, 0)
	for rows.Next() {
		reg := &domain.Registration{}
		var memberID, externalName, externalEmail, sessionID sql.NullString
		var confirmedAt, cancelledAt sql.NullTime
		var attStatus, attMarkedBy, attNotes sql.NullString
		var attMarkedAt sql.NullTime
		var displayName, email string
		if err := rows.Scan(
			&reg.ID, &reg.WorkshopID, &memberID, &externalName, &externalEmail,
			&reg.Status, &reg.AmountPaid, &reg.Currency, &sessionID,
			&reg.RegisteredAt, &confirmedAt, &cancelledAt,
			&attStatus, &attMarkedBy, &attMarkedAt, &attNotes,
			&displayName, &email,
		); err != nil {
			return nil, err
		}
		if memberID.Valid {
			reg.MemberID = &memberID.String
		}
		if externalName.Valid {
			reg.ExternalName = &externalName.String
		}
		if externalEmail.Valid {
			reg.ExternalEmail = &externalEmail.String
		}
		if sessionID.Valid {
			reg.CheckoutSessionID = &sessionID.String
		}
		if confirmedAt.Valid {
			reg.ConfirmedAt = &confirmedAt.Time
		}
		if cancelledAt.Valid {
			reg.CancelledAt = &cancelledAt.Time
		}
		if attStatus.Valid {
			s := domain.AttendanceStatus(attStatus.String)
			reg.AttendanceStatus = &s
		}
		if attMarkedBy.Valid {
			reg.AttendanceMarkedBy = &attMarkedBy.String
		}
		if attMarkedAt.Valid {
			reg.AttendanceMarkedAt = &attMarkedAt.Time
		}
		if attNotes.Valid {
			reg.AttendanceNotes = &attNotes.String
		}
		attendees = append(attendees, &domain.Attendee{Registration: reg, DisplayName: displayName, Email: email})
	}
	return attendees, rows.Err()
}

func (r *registrationRepository) ListByMember(ctx context.Context, tx domain.Tx, memberID string) ([]*domain.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE member_id = $1
		ORDER BY registered_at DESC
	`
	return r.list(ctx, tx, query, memberID)
}

func (r *registrationRepository) UpdateStatus(ctx context.Context, tx domain.Tx, id string, from []domain.RegistrationStatus, to domain.RegistrationStatus, at time.Time) error {
	column := "cancelled_at"
	switch to {
	case domain.RegistrationConfirmed:
		column = "confirmed_at"
	case domain.RegistrationCancelled, domain.RegistrationRefunded:
		column = "cancelled_at"
	}
	query := `
		UPDATE registrations
		SET status = $1, ` + column + ` = $2
		WHERE id = $3 AND status = ANY($4)
	`
	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}
	result, err := q(r.DB, tx).ExecContext(ctx, query, to, at, id, pq.Array(fromStrs))
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var exists bool
		if err := q(r.DB, tx).QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM registrations WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return domain.ErrWrongState
		}
		return domain.ErrNotFound
	}
	return nil
}

func (r *registrationRepository) ListAttendance(ctx context.Context, tx domain.Tx, workshopID string) ([]*domain.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE workshop_id = $1 AND status = $2
		ORDER BY registered_at ASC
	`
	return r.list(ctx, tx, query, workshopID, domain.RegistrationConfirmed)
}

func (r *registrationRepository) UpdateAttendance(ctx context.Context, tx domain.Tx, workshopID string, u domain.AttendanceUpdate, markedBy string, markedAt time.Time) (bool, error) {
	query := `
		UPDATE registrations
		SET attendance_status = $1, attendance_marked_by = $2, attendance_marked_at = $3, attendance_notes = $4
		WHERE id = $5 AND workshop_id = $6
	`
	result, err := q(r.DB, tx).ExecContext(ctx, query, u.Status, markedBy, markedAt, u.Notes, u.RegistrationID, workshopID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *registrationRepository) list(ctx context.Context, tx domain.Tx, query string, args ...any) ([]*domain.Registration, error) {
	rows, err := q(r.DB, tx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]*domain.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func activeStatuses() []string {
	out := make([]string, len(domain.ActiveRegistrationStatuses))
	for i, s := range domain.ActiveRegistrationStatuses {
		out[i] = string(s)
	}
	return out
}

func prefixedRegistrationColumns(alias string) string {
	cols := []string{"id", "workshop_id", "member_id", "external_name", "external_email", "status", "amount_paid", "currency", "stripe_checkout_session_id", "registered_at", "confirmed_at", "cancelled_at", "attendance_status", "attendance_marked_by", "attendance_marked_at", "attendance_notes"}
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += alias + "." + c
	}
	return out
}

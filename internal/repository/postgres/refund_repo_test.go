package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"clubstack/internal/domain"
)

func sampleRefund() *domain.Refund {
	return &domain.Refund{
		ID:             "ref-1",
		RegistrationID: "reg-1",
		Amount:         2500,
		Currency:       "eur",
		Reason:         "course cancelled by instructor",
		Status:         domain.RefundPending,
		CreatedAt:      time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC),
	}
}

func refundRows(refs ...*domain.Refund) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "registration_id", "amount", "currency", "reason", "status",
		"provider_refund_id", "processed_by", "processed_at", "created_at", "updated_at",
	})
	for _, ref := range refs {
		var providerRefundID, processedBy, processedAt any
		if ref.ProviderRefundID != nil {
			providerRefundID = *ref.ProviderRefundID
		}
		if ref.ProcessedBy != nil {
			processedBy = *ref.ProcessedBy
		}
		if ref.ProcessedAt != nil {
			processedAt = *ref.ProcessedAt
		}
		rows.AddRow(
			ref.ID, ref.RegistrationID, ref.Amount, ref.Currency, ref.Reason,
			string(ref.Status), providerRefundID, processedBy, processedAt,
			ref.CreatedAt, ref.UpdatedAt,
		)
	}
	return rows
}

func TestRefundRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		ref := sampleRefund()
		ref.ID = ""
		mock.ExpectQuery(`INSERT INTO refunds`).
			WithArgs(ref.RegistrationID, ref.Amount, ref.Currency, ref.Reason, ref.Status, ref.CreatedAt, ref.UpdatedAt).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ref-uuid-1"))

		repo := NewRefundRepository(db)
		require.NoError(t, repo.Create(ctx, nil, ref))
		require.Equal(t, "ref-uuid-1", ref.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO refunds`).WillReturnError(sql.ErrConnDone)

		repo := NewRefundRepository(db)
		require.Error(t, repo.Create(ctx, nil, sampleRefund()))
	})
}

func TestRefundRepository_GetByRegistrationID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		want := sampleRefund()
		mock.ExpectQuery(`WHERE registration_id = \$1`).
			WithArgs("reg-1").
			WillReturnRows(refundRows(want))

		repo := NewRefundRepository(db)
		got, err := repo.GetByRegistrationID(ctx, nil, "reg-1")
		require.NoError(t, err)
		require.Equal(t, want, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`WHERE registration_id = \$1`).
			WithArgs("reg-missing").
			WillReturnError(sql.ErrNoRows)

		repo := NewRefundRepository(db)
		got, err := repo.GetByRegistrationID(ctx, nil, "reg-missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.Nil(t, got)
	})
}

func TestRefundRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	providerID := "re_123"
	processedBy := "admin-1"
	processedAt := time.Date(2026, 2, 6, 14, 0, 0, 0, time.UTC)

	t.Run("completed with provider details", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`provider_refund_id = COALESCE\(\$2, provider_refund_id\)`).
			WithArgs(domain.RefundCompleted, &providerID, &processedBy, &processedAt, "ref-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewRefundRepository(db)
		err = repo.UpdateStatus(ctx, nil, "ref-1", domain.RefundCompleted, &providerID, &processedBy, &processedAt)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure keeps existing provider fields", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE refunds`).
			WithArgs(domain.RefundFailed, nil, nil, nil, "ref-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewRefundRepository(db)
		err = repo.UpdateStatus(ctx, nil, "ref-1", domain.RefundFailed, nil, nil, nil)
		require.NoError(t, err)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE refunds`).
			WithArgs(domain.RefundCompleted, nil, nil, nil, "ref-missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewRefundRepository(db)
		err = repo.UpdateStatus(ctx, nil, "ref-missing", domain.RefundCompleted, nil, nil, nil)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

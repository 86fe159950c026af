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

func TestInterestRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		createdAt := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`INSERT INTO workshop_interest`).
			WithArgs("ws-1", "user-1", createdAt).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("int-1"))

		repo := NewInterestRepository(db)
		in := &domain.Interest{WorkshopID: "ws-1", UserID: "user-1", CreatedAt: createdAt}
		require.NoError(t, repo.Create(ctx, nil, in))
		require.Equal(t, "int-1", in.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent duplicate is absorbed", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		// ON CONFLICT DO NOTHING makes RETURNING produce no row when
		// another request inserted the same interest first.
		createdAt := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`INSERT INTO workshop_interest`).
			WithArgs("ws-1", "user-1", createdAt).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		repo := NewInterestRepository(db)
		in := &domain.Interest{WorkshopID: "ws-1", UserID: "user-1", CreatedAt: createdAt}
		require.NoError(t, repo.Create(ctx, nil, in))
		require.Empty(t, in.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInterestRepository_DeleteByWorkshopAndUser(t *testing.T) {
	ctx := context.Background()

	t.Run("row removed", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM workshop_interest`).
			WithArgs("ws-1", "user-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewInterestRepository(db)
		deleted, err := repo.DeleteByWorkshopAndUser(ctx, nil, "ws-1", "user-1")
		require.NoError(t, err)
		require.True(t, deleted)
	})

	t.Run("no row present", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM workshop_interest`).
			WithArgs("ws-1", "user-2").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewInterestRepository(db)
		deleted, err := repo.DeleteByWorkshopAndUser(ctx, nil, "ws-1", "user-2")
		require.NoError(t, err)
		require.False(t, deleted)
	})
}

func TestInterestRepository_ListByWorkshop(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	createdAt := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "workshop_id", "user_id", "created_at"}).
		AddRow("int-1", "ws-1", "user-1", createdAt).
		AddRow("int-2", "ws-1", "user-2", createdAt.Add(time.Minute))
	mock.ExpectQuery(`FROM workshop_interest`).
		WithArgs("ws-1").
		WillReturnRows(rows)

	repo := NewInterestRepository(db)
	interests, err := repo.ListByWorkshop(ctx, nil, "ws-1")
	require.NoError(t, err)
	require.Len(t, interests, 2)
	require.Equal(t, "user-1", interests[0].UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("get", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM settings`).
			WithArgs("waitlist_open").
			WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}).
				AddRow("waitlist_open", "true", time.Now()))

		repo := NewSettingsRepository(db)
		s, err := repo.Get(ctx, nil, "waitlist_open")
		require.NoError(t, err)
		require.Equal(t, "true", s.Value)
	})

	t.Run("get unknown key", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM settings`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		repo := NewSettingsRepository(db)
		_, err = repo.Get(ctx, nil, "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("set upserts", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`ON CONFLICT \(key\) DO UPDATE`).
			WithArgs("waitlist_open", "false").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewSettingsRepository(db)
		require.NoError(t, repo.Set(ctx, nil, "waitlist_open", "false"))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

package postgres

import (
	"context"
	"database/sql"
	"errors"

	"clubstack/internal/domain"
)

type settingsRepository struct {
	DB *sql.DB
}

func NewSettingsRepository(db *sql.DB) domain.SettingsRepository {
	return &settingsRepository{DB: db}
}

func (r *settingsRepository) Get(ctx context.Context, tx domain.Tx, key string) (*domain.Setting, error) {
	query := `
		SELECT key, value, updated_at
		FROM settings
		WHERE key = $1
	`
	s := &domain.Setting{}
	err := q(r.DB, tx).QueryRowContext(ctx, query, key).Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *settingsRepository) Set(ctx context.Context, tx domain.Tx, key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	_, err := q(r.DB, tx).ExecContext(ctx, query, key, value)
	return err
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"clubstack/internal/domain"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// txHandle is the concrete domain.Tx produced by TxManager.
type txHandle struct {
	tx *sql.Tx
}

// q resolves the querier for an optional transaction handle: the enclosing
// transaction when one was passed, the base pool otherwise.
func q(db *sql.DB, tx domain.Tx) querier {
	if tx == nil {
		return db
	}
	h, ok := tx.(*txHandle)
	if !ok {
		// A foreign Tx implementation can only come from a miswired test.
		panic(fmt.Sprintf("postgres: unexpected transaction handle %T", tx))
	}
	return h.tx
}

// TxManager implements domain.TransactionManager over a *sql.DB.
type TxManager struct {
	DB *sql.DB
}

// NewTxManager returns a TransactionManager for the given pool.
func NewTxManager(db *sql.DB) domain.TransactionManager {
	return &TxManager{DB: db}
}

// WithinTx runs fn inside a single transaction, committing when fn returns nil
// and rolling back otherwise.
func (m *TxManager) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	sqlTx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&txHandle{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

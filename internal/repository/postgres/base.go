package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/ticketnest/ticketing-api/pkg/errors"

	"github.com/ticketnest/ticketing-api/internal/repository"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// sqlTx adapts *sqlx.Tx to the repository.Tx unit of work.
type sqlTx struct {
	tx *sqlx.Tx
}

func (t *sqlTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqlTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return err
	}
	return nil
}

// BeginTx opens a unit of work. The caller owns release: defer Rollback, then
// Commit on success.
func (r *BaseRepository) BeginTx(ctx context.Context) (repository.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperrors.Persistence("failed to begin transaction", err)
	}
	return &sqlTx{tx: tx}, nil
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(repository.Tx) error) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// unwrapTx extracts the sqlx transaction behind a unit of work. Every write
// that must be atomic with a domain mutation goes through here.
func unwrapTx(tx repository.Tx) (*sqlx.Tx, error) {
	st, ok := tx.(*sqlTx)
	if !ok || st == nil || st.tx == nil {
		return nil, apperrors.Persistence("transaction is not active", nil)
	}
	return st.tx, nil
}

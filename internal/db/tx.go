package db

import (
	"context"
	"database/sql"
	"errors"

	"bistro-pos/internal/logger"

	"go.uber.org/zap"
)

// Querier is the subset of *sql.DB and *sql.Tx the repositories need. Collaborators
// that must join the caller's transaction take it explicitly.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside one transaction. Any error from fn, a failed commit or a
// cancelled ctx rolls the whole unit back.
func WithTx(ctx context.Context, database *sql.DB, fn func(tx *sql.Tx) error) error {
	log := logger.FromCtx(ctx)

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return Classify(err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error("failed to rollback transaction", zap.Error(rbErr))
		} else {
			log.Debug("transaction rolled back")
		}
	}()

	if err := fn(tx); err != nil {
		return Classify(err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", zap.Error(err))
		return Classify(err)
	}
	committed = true

	return nil
}

package table

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bistro-pos/internal/db"
	"bistro-pos/internal/logger"

	"go.uber.org/zap"
)

// Repository is the table registry. GetAvailability and SetAvailability take
// the caller's transaction; GetAvailability holds the row lock until it ends.
type Repository interface {
	GetAvailability(ctx context.Context, q db.Querier, tableID int64) (Availability, error)
	SetAvailability(ctx context.Context, q db.Querier, tableID int64, a Availability) error
	GetByID(ctx context.Context, tableID int64) (*Table, error)
	List(ctx context.Context) ([]*Table, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetAvailability(ctx context.Context, q db.Querier, tableID int64) (Availability, error) {
	var status string
	err := q.QueryRowContext(ctx, `
		SELECT status FROM tables WHERE id = $1 FOR UPDATE
	`, tableID).Scan(&status)

	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: id %d", ErrTableNotFound, tableID)
	}
	if err != nil {
		return "", err
	}
	return ParseAvailability(status)
}

func (r *repository) SetAvailability(ctx context.Context, q db.Querier, tableID int64, a Availability) error {
	if !a.Valid() {
		return fmt.Errorf("unknown table availability %q", a)
	}

	res, err := q.ExecContext(ctx, `
		UPDATE tables SET status = $1, updated_at = NOW() WHERE id = $2
	`, a, tableID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrTableNotFound, tableID)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, tableID int64) (*Table, error) {
	var t Table
	err := r.db.QueryRowContext(ctx, `
		SELECT id, table_number, capacity, status FROM tables WHERE id = $1
	`, tableID).Scan(&t.ID, &t.Number, &t.Capacity, &t.Availability)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) List(ctx context.Context) ([]*Table, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, table_number, capacity, status FROM tables ORDER BY table_number ASC
	`)
	if err != nil {
		log.Error("failed to query tables", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var tables []*Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.ID, &t.Number, &t.Capacity, &t.Availability); err != nil {
			return nil, err
		}
		tables = append(tables, &t)
	}
	return tables, rows.Err()
}

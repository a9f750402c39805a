package staff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bistro-pos/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Member, error)
	// Names resolves display names for ids; unknown ids are left out.
	Names(ctx context.Context, ids []int64) (map[int64]string, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Member, error) {
	var m Member
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, email, role FROM users WHERE id = $1", id,
	).Scan(&m.ID, &m.Name, &m.Email, &m.Role)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrStaffNotFound, id)
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to load staff member",
			zap.Int64("staff_id", id),
			zap.Error(err),
		)
		return nil, err
	}
	return &m, nil
}

func (r *repository) Names(ctx context.Context, ids []int64) (map[int64]string, error) {
	names := map[int64]string{}
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM users WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to load staff names", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

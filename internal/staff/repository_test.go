package staff

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, name, email, role FROM users WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role"}).
				AddRow(3, "Dana", "dana@bistro.test", "waiter"))

		m, err := repo.GetByID(ctx, 3)
		assert.NoError(t, err)
		assert.Equal(t, &Member{ID: 3, Name: "Dana", Email: "dana@bistro.test", Role: "waiter"}, m)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, name, email, role FROM users`).
			WithArgs(int64(4)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role"}))

		_, err := repo.GetByID(ctx, 4)
		assert.ErrorIs(t, err, ErrStaffNotFound)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, name, email, role FROM users`).
			WillReturnError(errors.New("db error"))

		_, err := repo.GetByID(ctx, 5)
		assert.EqualError(t, err, "db error")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Names(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT id, name FROM users WHERE id = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "Dana").AddRow(4, "Sam"))

	names, err := repo.Names(context.Background(), []int64{3, 4, 9})
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{3: "Dana", 4: "Sam"}, names)

	empty, err := repo.Names(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	assert.NoError(t, mock.ExpectationsWereMet())
}

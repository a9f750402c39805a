package report

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"bistro-pos/internal/money"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_SettledPayments(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	rg := Range{
		Start: time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 14, 23, 59, 59, 0, time.UTC),
	}
	paidAt := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM payments p JOIN orders o ON o.id = p.order_id WHERE p.status = 'completed'`)).
		WithArgs(rg.Start, rg.End).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "staff_id", "amount", "tip", "total_paid",
			"payment_method", "receipt_number", "paid_at"}).
			AddRow(1, 10, 2, "24.97", "3.00", "27.97", "cash", "RCPT-1", paidAt).
			AddRow(2, 11, 2, "5.00", "0.00", "5.00", "debit_card", "RCPT-2", paidAt))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM order_items WHERE order_id = ANY($1)`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "menu_item_id", "menu_item_name", "quantity", "unit_price"}).
			AddRow(10, 1, "Margherita", 2, "8.99").
			AddRow(10, 2, "Lemonade", 1, "6.99").
			AddRow(11, 3, "Bread", 1, "5.00"))

	out, err := repo.SettledPayments(ctx, rg)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, money.MustParse("27.97"), out[0].TotalPaid)
	assert.Equal(t, "cash", out[0].Method)
	assert.Len(t, out[0].Items, 2)
	assert.Equal(t, "Bread", out[1].Items[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SettledPayments_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM payments p`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	out, err := NewRepository(db).SettledPayments(context.Background(), Range{})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_OrderCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	query := regexp.QuoteMeta(`SELECT status, COUNT(*) FROM orders WHERE created_at BETWEEN $1 AND $2 GROUP BY status`)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("paid", 4).AddRow("pending", 1))

		counts, err := repo.OrderCounts(context.Background(), Range{})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"paid": 4, "pending": 1}, counts)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(query).WillReturnError(errors.New("db down"))

		_, err := repo.OrderCounts(context.Background(), Range{})
		assert.EqualError(t, err, "db down")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

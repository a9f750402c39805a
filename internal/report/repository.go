package report

import (
	"context"
	"database/sql"

	"bistro-pos/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Source reads settled data. Only completed payments count as revenue.
type Source interface {
	SettledPayments(ctx context.Context, r Range) ([]*Settled, error)
	OrderCounts(ctx context.Context, r Range) (map[string]int, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Source {
	return &repository{db: db}
}

func (r *repository) log(ctx context.Context, method string) *zap.Logger {
	return logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", method),
	)
}

func (r *repository) SettledPayments(ctx context.Context, rg Range) ([]*Settled, error) {
	log := r.log(ctx, "SettledPayments")

	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.order_id, o.staff_id, p.amount, p.tip, p.total_paid,
		       p.payment_method, p.receipt_number, p.paid_at
		FROM payments p
		JOIN orders o ON o.id = p.order_id
		WHERE p.status = 'completed' AND p.paid_at BETWEEN $1 AND $2
		ORDER BY p.paid_at ASC, p.id ASC
	`, rg.Start, rg.End)
	if err != nil {
		log.Error("failed to query settled payments", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var (
		out      []*Settled
		orderIDs []int64
		byOrder  = map[int64]*Settled{}
	)
	for rows.Next() {
		var s Settled
		if err := rows.Scan(&s.PaymentID, &s.OrderID, &s.StaffID, &s.Amount, &s.Tip, &s.TotalPaid,
			&s.Method, &s.ReceiptNumber, &s.PaidAt); err != nil {
			log.Error("failed to scan settled payment", zap.Error(err))
			return nil, err
		}
		out = append(out, &s)
		orderIDs = append(orderIDs, s.OrderID)
		byOrder[s.OrderID] = &s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, menu_item_id, menu_item_name, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id ASC, id ASC
	`, pq.Array(orderIDs))
	if err != nil {
		log.Error("failed to query sold items", zap.Error(err))
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			orderID int64
			it      SoldItem
		)
		if err := itemRows.Scan(&orderID, &it.MenuItemID, &it.Name, &it.Quantity, &it.UnitPrice); err != nil {
			log.Error("failed to scan sold item", zap.Error(err))
			return nil, err
		}
		if s, ok := byOrder[orderID]; ok {
			s.Items = append(s.Items, it)
		}
	}

	return out, itemRows.Err()
}

func (r *repository) OrderCounts(ctx context.Context, rg Range) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM orders
		WHERE created_at BETWEEN $1 AND $2
		GROUP BY status
	`, rg.Start, rg.End)
	if err != nil {
		r.log(ctx, "OrderCounts").Error("failed to count orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}

	return counts, rows.Err()
}

package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bistro-pos/internal/db"

	"github.com/lib/pq"
)

const orderColumns = `id, table_id, staff_id, status, total_amount, notes, version, created_at, updated_at`

const itemColumns = `id, order_id, menu_item_id, menu_item_name, quantity, unit_price, notes, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.TableID, &o.StaffID, &o.Status, &o.TotalAmount,
		&o.Notes, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Items = []*LineItem{}
	return &o, nil
}

func scanItem(row scanner) (*LineItem, error) {
	var li LineItem
	err := row.Scan(
		&li.ID, &li.OrderID, &li.MenuItemID, &li.MenuItemName,
		&li.Quantity, &li.UnitPrice, &li.Notes, &li.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &li, nil
}

// SelectForUpdate loads the order with its items and holds the order row lock
// until q's transaction ends. Every mutation of an order starts here.
func SelectForUpdate(ctx context.Context, q db.Querier, orderID int64) (*Order, error) {
	o, err := scanOrder(q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}

	if err := loadItems(ctx, q, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// SaveHeader writes status and total, guarded by the version read under lock.
// A stale version means someone else committed first.
func SaveHeader(ctx context.Context, q db.Querier, o *Order) error {
	err := q.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $1, total_amount = $2, version = version + 1, updated_at = NOW()
		WHERE id = $3 AND version = $4
		RETURNING version, updated_at
	`, o.Status, o.TotalAmount, o.ID, o.Version).Scan(&o.Version, &o.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: order %d changed since version %d", db.ErrConcurrentModification, o.ID, o.Version)
	}
	return err
}

func loadItems(ctx context.Context, q db.Querier, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[int64]*Order, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM order_items WHERE order_id = ANY($1) ORDER BY id ASC`,
		pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		li, err := scanItem(rows)
		if err != nil {
			return err
		}
		if o, ok := byID[li.OrderID]; ok {
			o.Items = append(o.Items, li)
		}
	}
	return rows.Err()
}

func insertItem(ctx context.Context, q db.Querier, li *LineItem) error {
	return q.QueryRowContext(ctx, `
		INSERT INTO order_items (order_id, menu_item_id, menu_item_name, quantity, unit_price, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, li.OrderID, li.MenuItemID, li.MenuItemName, li.Quantity, li.UnitPrice, li.Notes).
		Scan(&li.ID, &li.CreatedAt)
}

// TableHeldByOther reports whether an order other than exceptID still keeps
// tableID open. A table is released only once no such order remains.
func TableHeldByOther(ctx context.Context, q db.Querier, tableID, exceptID int64) (bool, error) {
	var held bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE table_id = $1 AND id <> $2 AND status NOT IN ($3, $4)
		)
	`, tableID, exceptID, StatusPaid, StatusCanceled).Scan(&held)
	return held, err
}

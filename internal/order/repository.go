package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bistro-pos/internal/db"
	"bistro-pos/internal/logger"
	"bistro-pos/internal/money"
	"bistro-pos/internal/table"

	"go.uber.org/zap"
)

// PriceSource is the menu catalog as seen by the order engine.
type PriceSource interface {
	GetPrice(ctx context.Context, q db.Querier, menuItemID int64) (money.Cents, string, error)
}

// TableRegistry is the part of the table registry that joins order transactions.
type TableRegistry interface {
	GetAvailability(ctx context.Context, q db.Querier, tableID int64) (table.Availability, error)
	SetAvailability(ctx context.Context, q db.Querier, tableID int64, a table.Availability) error
}

// Repository persists the order aggregate. Every mutating call is one
// transaction that begins by locking the order row.
type Repository interface {
	Create(ctx context.Context, staffID int64, in CreateInput) (*Order, error)
	AddItems(ctx context.Context, orderID int64, items []ItemInput) (*Order, []*LineItem, error)
	UpdateItem(ctx context.Context, orderID, itemID int64, patch ItemPatch) (*Order, error)
	RemoveItem(ctx context.Context, orderID, itemID int64) (*Order, error)
	UpdateStatus(ctx context.Context, orderID int64, to Status) (*Order, Status, error)
	GetByID(ctx context.Context, orderID int64) (*Order, error)
	List(ctx context.Context, f Filter) ([]*Order, error)
}

type repository struct {
	db     *sql.DB
	prices PriceSource
	tables TableRegistry
}

func NewRepository(db *sql.DB, prices PriceSource, tables TableRegistry) Repository {
	return &repository{db: db, prices: prices, tables: tables}
}

func (r *repository) log(ctx context.Context, method string) *zap.Logger {
	return logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", method),
	)
}

// addItem prices one line from the catalog inside tx and appends it.
func (r *repository) addItem(ctx context.Context, tx *sql.Tx, o *Order, in ItemInput) (*LineItem, error) {
	if err := o.CheckEditable(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	price, name, err := r.prices.GetPrice(ctx, tx, in.MenuItemID)
	if err != nil {
		return nil, err
	}

	li := &LineItem{
		MenuItemID:   in.MenuItemID,
		MenuItemName: name,
		Quantity:     in.Quantity,
		UnitPrice:    price,
		Notes:        in.Notes,
	}
	if err := o.AddItem(li); err != nil {
		return nil, err
	}
	if err := insertItem(ctx, tx, li); err != nil {
		return nil, err
	}
	return li, nil
}

func (r *repository) Create(ctx context.Context, staffID int64, in CreateInput) (*Order, error) {
	log := r.log(ctx, "Create").With(zap.Int64("table_id", in.TableID))

	var created *Order
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		avail, err := r.tables.GetAvailability(ctx, tx, in.TableID)
		if err != nil {
			return err
		}
		if avail != table.Available {
			return fmt.Errorf("%w: table %d is %s", table.ErrTableUnavailable, in.TableID, avail)
		}

		o := &Order{
			TableID: in.TableID,
			StaffID: staffID,
			Status:  StatusPending,
			Notes:   in.Notes,
			Items:   []*LineItem{},
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO orders (table_id, staff_id, status, total_amount, notes, version)
			VALUES ($1, $2, $3, $4, $5, 1)
			RETURNING id, version, created_at, updated_at
		`, o.TableID, o.StaffID, o.Status, o.TotalAmount, o.Notes).
			Scan(&o.ID, &o.Version, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			log.Error("failed to insert order", zap.Error(err))
			return err
		}

		if err := r.tables.SetAvailability(ctx, tx, o.TableID, table.Occupied); err != nil {
			return err
		}

		for _, item := range in.Items {
			if _, err := r.addItem(ctx, tx, o, item); err != nil {
				return fmt.Errorf("cannot add item: %w", err)
			}
		}
		if len(in.Items) > 0 {
			if err := SaveHeader(ctx, tx, o); err != nil {
				return err
			}
		}

		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("order created", zap.Int64("order_id", created.ID))
	return created, nil
}

func (r *repository) AddItems(ctx context.Context, orderID int64, items []ItemInput) (*Order, []*LineItem, error) {
	log := r.log(ctx, "AddItems").With(zap.Int64("order_id", orderID))

	var (
		updated *Order
		added   []*LineItem
	)
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		o, err := SelectForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}

		added = added[:0]
		for _, in := range items {
			li, err := r.addItem(ctx, tx, o, in)
			if err != nil {
				return fmt.Errorf("cannot add item: %w", err)
			}
			added = append(added, li)
		}

		if err := SaveHeader(ctx, tx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		log.Debug("add items rejected", zap.Error(err))
		return nil, nil, err
	}

	return updated, added, nil
}

func (r *repository) UpdateItem(ctx context.Context, orderID, itemID int64, patch ItemPatch) (*Order, error) {
	var updated *Order
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		o, err := SelectForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}

		li, err := o.UpdateItem(itemID, patch)
		if err != nil {
			return fmt.Errorf("cannot update item: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE order_items SET quantity = $1, notes = $2 WHERE id = $3 AND order_id = $4
		`, li.Quantity, li.Notes, li.ID, o.ID)
		if err != nil {
			return err
		}

		if err := SaveHeader(ctx, tx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *repository) RemoveItem(ctx context.Context, orderID, itemID int64) (*Order, error) {
	var updated *Order
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		o, err := SelectForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}

		li, err := o.RemoveItem(itemID)
		if err != nil {
			return fmt.Errorf("cannot remove item: %w", err)
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM order_items WHERE id = $1 AND order_id = $2`, li.ID, o.ID)
		if err != nil {
			return err
		}

		if err := SaveHeader(ctx, tx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderID int64, to Status) (*Order, Status, error) {
	log := r.log(ctx, "UpdateStatus").With(zap.Int64("order_id", orderID), zap.String("to", string(to)))

	var (
		updated *Order
		from    Status
	)
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		o, err := SelectForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}

		from = o.Status
		if err := o.TransitionTo(to, TriggerManual); err != nil {
			return fmt.Errorf("cannot change status: %w", err)
		}
		if err := SaveHeader(ctx, tx, o); err != nil {
			return err
		}

		if to == StatusCanceled {
			held, err := TableHeldByOther(ctx, tx, o.TableID, o.ID)
			if err != nil {
				return err
			}
			if !held {
				if err := r.tables.SetAvailability(ctx, tx, o.TableID, table.Available); err != nil {
					return err
				}
			}
		}

		updated = o
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	log.Info("order status changed", zap.String("from", string(from)))
	return updated, from, nil
}

func (r *repository) GetByID(ctx context.Context, orderID int64) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
	}
	if err != nil {
		r.log(ctx, "GetByID").Error("failed to load order", zap.Error(err))
		return nil, err
	}

	if err := loadItems(ctx, r.db, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) List(ctx context.Context, f Filter) ([]*Order, error) {
	f = f.Normalize()
	log := r.log(ctx, "List").With(
		zap.Int("limit", f.Limit),
		zap.Int("page", f.Page),
	)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	args := []any{}
	argIndex := 1

	if f.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *f.Status)
		argIndex++
	}
	if f.TableID != nil {
		query += fmt.Sprintf(" AND table_id = $%d", argIndex)
		args = append(args, *f.TableID)
		argIndex++
	}
	if f.StaffID != nil {
		query += fmt.Sprintf(" AND staff_id = $%d", argIndex)
		args = append(args, *f.StaffID)
		argIndex++
	}
	if f.Unpaid {
		query += fmt.Sprintf(" AND status NOT IN ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, StatusPaid, StatusCanceled)
		argIndex += 2
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, f.Limit, f.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	orders := []*Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order", zap.Error(err))
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := loadItems(ctx, r.db, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

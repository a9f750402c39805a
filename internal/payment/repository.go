package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bistro-pos/internal/db"
	"bistro-pos/internal/logger"
	"bistro-pos/internal/order"
	"bistro-pos/internal/table"

	"go.uber.org/zap"
)

const (
	oneCompletedPerOrder = "payments_one_completed_per_order"
	receiptNumberKey     = "payments_receipt_number_key"
)

const paymentColumns = `id, order_id, amount, tip, total_paid, payment_method, amount_received, change_given,
	status, receipt_number, processed_by, cancelled_by, paid_at, cancelled_at, created_at, items`

// TableRegistry is the part of the table registry settlement drives.
type TableRegistry interface {
	SetAvailability(ctx context.Context, q db.Querier, tableID int64, a table.Availability) error
}

type Repository interface {
	// Settle locks the order, then writes payment, order status and table
	// availability in one transaction.
	Settle(ctx context.Context, in SettleInput, actorID int64, receiptNo string) (*Payment, *order.Order, error)
	// Cancel locks the order, then the payment, in the same order as Settle.
	Cancel(ctx context.Context, paymentID, actorID int64) (*Payment, *order.Order, error)
	GetByID(ctx context.Context, paymentID int64) (*Payment, error)
	List(ctx context.Context, orderID *int64, limit int) ([]*Payment, error)
}

type repository struct {
	db     *sql.DB
	tables TableRegistry
	now    func() time.Time
}

func NewRepository(db *sql.DB, tables TableRegistry) Repository {
	return &repository{db: db, tables: tables, now: time.Now}
}

func scanPayment(row interface{ Scan(...any) error }) (*Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID, &p.OrderID, &p.Amount, &p.Tip, &p.TotalPaid, &p.Method, &p.AmountReceived, &p.ChangeGiven,
		&p.Status, &p.ReceiptNumber, &p.ProcessedBy, &p.CancelledBy, &p.PaidAt, &p.CancelledAt, &p.CreatedAt, &p.Items,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) Settle(ctx context.Context, in SettleInput, actorID int64, receiptNo string) (*Payment, *order.Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Settle"),
		zap.Int64("order_id", in.OrderID),
	)

	var (
		paid    *Payment
		settled *order.Order
	)
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		o, err := order.SelectForUpdate(ctx, tx, in.OrderID)
		if err != nil {
			return err
		}

		var hasCompleted bool
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM payments WHERE order_id = $1 AND status = $2)
		`, o.ID, StatusCompleted).Scan(&hasCompleted)
		if err != nil {
			return err
		}

		p, err := NewSettlement(o, hasCompleted, in, actorID, receiptNo, r.now().UTC())
		if err != nil {
			return err
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO payments (
				order_id, amount, tip, total_paid, payment_method, amount_received,
				change_given, status, receipt_number, processed_by, paid_at, items
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id, created_at
		`,
			p.OrderID, p.Amount, p.Tip, p.TotalPaid, p.Method, p.AmountReceived,
			p.ChangeGiven, p.Status, p.ReceiptNumber, p.ProcessedBy, p.PaidAt, p.Items,
		).Scan(&p.ID, &p.CreatedAt)
		switch {
		case db.IsUniqueViolation(err, oneCompletedPerOrder):
			return fmt.Errorf("cannot settle: %w: order %d", ErrOrderAlreadyPaid, o.ID)
		case db.IsUniqueViolation(err, receiptNumberKey):
			return fmt.Errorf("%w: receipt number %s taken", db.ErrConcurrentModification, p.ReceiptNumber)
		case err != nil:
			log.Error("failed to insert payment", zap.Error(err))
			return err
		}

		if err := order.SaveHeader(ctx, tx, o); err != nil {
			return err
		}
		held, err := order.TableHeldByOther(ctx, tx, o.TableID, o.ID)
		if err != nil {
			return err
		}
		if !held {
			if err := r.tables.SetAvailability(ctx, tx, o.TableID, table.Available); err != nil {
				return err
			}
		}

		paid, settled = p, o
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	log.Info("payment settled",
		zap.Int64("payment_id", paid.ID),
		zap.String("total_paid", paid.TotalPaid.String()),
		zap.String("payment_method", string(paid.Method)),
	)
	return paid, settled, nil
}

func (r *repository) Cancel(ctx context.Context, paymentID, actorID int64) (*Payment, *order.Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Cancel"),
		zap.Int64("payment_id", paymentID),
	)

	// order_id never changes, so it is safe to read before taking any lock.
	var orderID int64
	err := r.db.QueryRowContext(ctx, `SELECT order_id FROM payments WHERE id = $1`, paymentID).Scan(&orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: id %d", ErrPaymentNotFound, paymentID)
	}
	if err != nil {
		return nil, nil, err
	}

	var (
		cancelled *Payment
		reopened  *order.Order
	)
	err = db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		o, err := order.SelectForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}

		p, err := scanPayment(tx.QueryRowContext(ctx,
			`SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, paymentID))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: id %d", ErrPaymentNotFound, paymentID)
		}
		if err != nil {
			return err
		}

		if err := Refund(o, p, actorID, r.now().UTC()); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE payments SET status = $1, cancelled_at = $2, cancelled_by = $3 WHERE id = $4
		`, p.Status, p.CancelledAt, p.CancelledBy, p.ID)
		if err != nil {
			return err
		}

		if err := order.SaveHeader(ctx, tx, o); err != nil {
			return err
		}
		if err := r.tables.SetAvailability(ctx, tx, o.TableID, table.Occupied); err != nil {
			return err
		}

		cancelled, reopened = p, o
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	log.Info("payment cancelled", zap.Int64("order_id", reopened.ID))
	return cancelled, reopened, nil
}

func (r *repository) GetByID(ctx context.Context, paymentID int64) (*Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, paymentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrPaymentNotFound, paymentID)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, orderID *int64, limit int) ([]*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments`
	args := []any{}
	if orderID != nil {
		query += ` WHERE order_id = $1`
		args = append(args, *orderID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query payments", zap.String("layer", "repository"), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	payments := []*Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

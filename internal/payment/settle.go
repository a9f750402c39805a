package payment

import (
	"fmt"
	"time"

	"bistro-pos/internal/order"
)

// NewSettlement validates the locked order against in and returns the
// completed payment. On success o has been moved to Paid; on failure neither
// o nor anything else has changed.
func NewSettlement(o *order.Order, hasCompleted bool, in SettleInput, actorID int64, receiptNo string, now time.Time) (*Payment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if o.Status == order.StatusPaid || hasCompleted {
		return nil, fmt.Errorf("cannot settle: %w: order %d", ErrOrderAlreadyPaid, o.ID)
	}
	if err := order.CheckTransition(o.Status, order.StatusPaid, order.TriggerSettle); err != nil {
		return nil, fmt.Errorf("cannot settle: %w", err)
	}
	if len(o.Items) == 0 {
		return nil, fmt.Errorf("cannot settle: %w: order %d", ErrOrderEmpty, o.ID)
	}

	b, err := Compute(o.TotalAmount, in)
	if err != nil {
		return nil, fmt.Errorf("cannot settle: %w", err)
	}
	lines, err := SnapshotLines(o)
	if err != nil {
		return nil, fmt.Errorf("cannot settle: %w", err)
	}

	if err := o.TransitionTo(order.StatusPaid, order.TriggerSettle); err != nil {
		return nil, err
	}

	paidAt := now
	return &Payment{
		OrderID:        o.ID,
		Amount:         b.Amount,
		Tip:            b.Tip,
		TotalPaid:      b.TotalPaid,
		Method:         in.Method,
		AmountReceived: b.AmountReceived,
		ChangeGiven:    b.ChangeGiven,
		Status:         StatusCompleted,
		ReceiptNumber:  receiptNo,
		ProcessedBy:    actorID,
		PaidAt:         &paidAt,
		CreatedAt:      now,
		Items:          lines,
	}, nil
}

// Refund cancels p and reopens its order as Served.
func Refund(o *order.Order, p *Payment, actorID int64, now time.Time) error {
	if p.OrderID != o.ID {
		return fmt.Errorf("payment %d does not belong to order %d", p.ID, o.ID)
	}
	if err := p.Cancel(actorID, now); err != nil {
		return err
	}
	if err := o.TransitionTo(order.StatusServed, order.TriggerRefund); err != nil {
		return fmt.Errorf("cannot cancel payment: %w", err)
	}
	return nil
}

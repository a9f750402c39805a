package payment

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"bistro-pos/internal/money"
	"bistro-pos/internal/order"
)

type Method string

const (
	MethodCash          Method = "cash"
	MethodCreditCard    Method = "credit_card"
	MethodDebitCard     Method = "debit_card"
	MethodMobilePayment Method = "mobile_payment"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodCreditCard, MethodDebitCard, MethodMobilePayment:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Payment struct {
	ID             int64        `json:"id"`
	OrderID        int64        `json:"order_id"`
	Amount         money.Cents  `json:"amount"`
	Tip            money.Cents  `json:"tip"`
	TotalPaid      money.Cents  `json:"total_paid"`
	Method         Method       `json:"payment_method"`
	AmountReceived *money.Cents `json:"amount_received"`
	ChangeGiven    money.Cents  `json:"change_given"`
	Status         Status       `json:"status"`
	ReceiptNumber  string       `json:"receipt_number"`
	ProcessedBy    int64        `json:"processed_by"`
	CancelledBy    *int64       `json:"cancelled_by,omitempty"`
	PaidAt         *time.Time   `json:"paid_at"`
	CancelledAt    *time.Time   `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	// Items are the order lines this payment settled, frozen at settlement.
	Items Lines `json:"items"`
}

type SettleInput struct {
	OrderID        int64        `json:"order_id"`
	Method         Method       `json:"payment_method"`
	Tip            money.Cents  `json:"tip"`
	AmountReceived *money.Cents `json:"amount_received,omitempty"`
}

// Validate checks what can be checked without looking at the order.
func (in SettleInput) Validate() error {
	if !in.Method.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMethod, in.Method)
	}
	if in.Tip.IsNegative() {
		return ErrInvalidTip
	}
	if err := in.Tip.CheckStorable(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTip, err)
	}
	if in.AmountReceived != nil {
		if in.AmountReceived.IsNegative() {
			return fmt.Errorf("%w: amount received is negative", ErrInsufficientAmount)
		}
		if err := in.AmountReceived.CheckStorable(); err != nil {
			return fmt.Errorf("amount received: %w", err)
		}
	}
	return nil
}

// Breakdown is the money side of a settlement.
type Breakdown struct {
	Amount         money.Cents
	Tip            money.Cents
	TotalPaid      money.Cents
	AmountReceived *money.Cents
	ChangeGiven    money.Cents
}

// Compute derives total and change from the order subtotal. Only cash keeps
// the amount received; every other method settles the exact total.
func Compute(subtotal money.Cents, in SettleInput) (Breakdown, error) {
	total, err := subtotal.Add(in.Tip)
	if err == nil {
		err = total.CheckStorable()
	}
	if err != nil {
		return Breakdown{}, fmt.Errorf("total paid: %w", err)
	}
	b := Breakdown{
		Amount:    subtotal,
		Tip:       in.Tip,
		TotalPaid: total,
	}

	if in.Method != MethodCash {
		return b, nil
	}

	if in.AmountReceived == nil {
		return Breakdown{}, fmt.Errorf("%w: cash needs amount received", ErrInsufficientAmount)
	}
	received := *in.AmountReceived
	if received < b.TotalPaid {
		return Breakdown{}, fmt.Errorf("%w: received %s, due %s", ErrInsufficientAmount, received, b.TotalPaid)
	}

	b.AmountReceived = &received
	b.ChangeGiven = money.Max(0, received.Sub(b.TotalPaid))
	return b, nil
}

func (p *Payment) Cancel(by int64, now time.Time) error {
	if p.Status == StatusCancelled {
		return fmt.Errorf("%w: payment %d", ErrAlreadyCancelled, p.ID)
	}
	p.Status = StatusCancelled
	p.CancelledAt = &now
	p.CancelledBy = &by
	return nil
}

// Line is one order line as it stood when the payment settled.
type Line struct {
	MenuItemID int64       `json:"menu_item_id"`
	Name       string      `json:"menu_item_name"`
	Quantity   int         `json:"quantity"`
	UnitPrice  money.Cents `json:"unit_price"`
	LineTotal  money.Cents `json:"line_total"`
	Notes      *string     `json:"notes,omitempty"`
}

// Lines is kept in the payments.items JSONB column.
type Lines []Line

// SnapshotLines copies the priced lines of o.
func SnapshotLines(o *order.Order) (Lines, error) {
	lines := make(Lines, 0, len(o.Items))
	for _, it := range o.Items {
		total, err := it.LineTotal()
		if err != nil {
			return nil, err
		}
		l := Line{
			MenuItemID: it.MenuItemID,
			Name:       it.MenuItemName,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			LineTotal:  total,
		}
		if it.Notes != nil {
			n := *it.Notes
			l.Notes = &n
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// Clone returns a copy that shares no notes with l.
func (l Lines) Clone() Lines {
	if l == nil {
		return nil
	}
	out := make(Lines, len(l))
	for i, line := range l {
		if line.Notes != nil {
			n := *line.Notes
			line.Notes = &n
		}
		out[i] = line
	}
	return out
}

func (l Lines) Value() (driver.Value, error) {
	if l == nil {
		l = Lines{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *Lines) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = Lines{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into payment lines", src)
	}
	var out Lines
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("cannot decode payment lines: %w", err)
	}
	if out == nil {
		out = Lines{}
	}
	*l = out
	return nil
}

package payment

import (
	"testing"
	"time"

	"bistro-pos/internal/money"
	"bistro-pos/internal/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func servedOrder() *order.Order {
	o := &order.Order{ID: 1, TableID: 1, StaffID: 7, Status: order.StatusPending, Items: []*order.LineItem{}}
	_ = o.AddItem(&order.LineItem{ID: 1, Quantity: 2, UnitPrice: money.MustParse("8.99")})
	_ = o.AddItem(&order.LineItem{ID: 2, Quantity: 1, UnitPrice: money.MustParse("6.99")})
	o.Status = order.StatusServed
	return o
}

var cashIn = SettleInput{OrderID: 1, Method: MethodCash, Tip: money.MustParse("2.50"), AmountReceived: cents("30.00")}

func TestNewSettlement(t *testing.T) {
	now := time.Date(2025, 3, 23, 20, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		o := servedOrder()
		p, err := NewSettlement(o, false, cashIn, 3, "RCPT-1", now)
		require.NoError(t, err)

		assert.Equal(t, order.StatusPaid, o.Status)
		assert.Equal(t, StatusCompleted, p.Status)
		assert.Equal(t, "24.97", p.Amount.String())
		assert.Equal(t, "27.47", p.TotalPaid.String())
		assert.Equal(t, "2.53", p.ChangeGiven.String())
		assert.Equal(t, int64(3), p.ProcessedBy)
		assert.Equal(t, "RCPT-1", p.ReceiptNumber)
		assert.Equal(t, now, *p.PaidAt)
	})

	t.Run("SnapshotsLines", func(t *testing.T) {
		o := servedOrder()
		note := "extra basil"
		o.Items[0].Notes = &note

		p, err := NewSettlement(o, false, cashIn, 3, "RCPT-1", now)
		require.NoError(t, err)
		require.Len(t, p.Items, 2)
		assert.Equal(t, 2, p.Items[0].Quantity)
		assert.Equal(t, "17.98", p.Items[0].LineTotal.String())
		assert.Equal(t, "6.99", p.Items[1].LineTotal.String())

		// later edits of the reopened order do not reach the payment
		o.Items[0].Quantity = 5
		note = "changed"
		o.Items = append(o.Items, &order.LineItem{ID: 3, Quantity: 3, UnitPrice: money.MustParse("6.99")})
		assert.Len(t, p.Items, 2)
		assert.Equal(t, 2, p.Items[0].Quantity)
		assert.Equal(t, "extra basil", *p.Items[0].Notes)
	})

	t.Run("SettlesFromAnyEditableState", func(t *testing.T) {
		for _, st := range []order.Status{order.StatusPending, order.StatusPreparing, order.StatusReady} {
			o := servedOrder()
			o.Status = st
			_, err := NewSettlement(o, false, cashIn, 3, "R", now)
			assert.NoError(t, err, st)
		}
	})

	t.Run("AlreadyPaid", func(t *testing.T) {
		o := servedOrder()
		o.Status = order.StatusPaid
		_, err := NewSettlement(o, false, cashIn, 3, "R", now)
		assert.ErrorIs(t, err, ErrOrderAlreadyPaid)

		o = servedOrder()
		_, err = NewSettlement(o, true, cashIn, 3, "R", now)
		assert.ErrorIs(t, err, ErrOrderAlreadyPaid)
		assert.Equal(t, order.StatusServed, o.Status)
	})

	t.Run("Canceled", func(t *testing.T) {
		o := servedOrder()
		o.Status = order.StatusCanceled
		_, err := NewSettlement(o, false, cashIn, 3, "R", now)
		assert.ErrorIs(t, err, order.ErrInvalidTransition)
	})

	t.Run("Empty", func(t *testing.T) {
		o := &order.Order{ID: 2, Status: order.StatusServed}
		_, err := NewSettlement(o, false, cashIn, 3, "R", now)
		assert.ErrorIs(t, err, ErrOrderEmpty)
		assert.Equal(t, order.StatusServed, o.Status)
	})

	t.Run("Insufficient", func(t *testing.T) {
		o := servedOrder()
		in := cashIn
		in.AmountReceived = cents("20.00")
		_, err := NewSettlement(o, false, in, 3, "R", now)
		assert.ErrorIs(t, err, ErrInsufficientAmount)
		assert.Equal(t, order.StatusServed, o.Status)
	})

	t.Run("InvalidTip", func(t *testing.T) {
		o := servedOrder()
		in := cashIn
		in.Tip = money.MustParse("-1.00")
		_, err := NewSettlement(o, false, in, 3, "R", now)
		assert.ErrorIs(t, err, ErrInvalidTip)
	})
}

func TestRefund(t *testing.T) {
	now := time.Now()
	o := servedOrder()
	p, err := NewSettlement(o, false, cashIn, 3, "R", now)
	require.NoError(t, err)
	p.ID = 11

	require.NoError(t, Refund(o, p, 4, now))
	assert.Equal(t, order.StatusServed, o.Status)
	assert.Equal(t, StatusCancelled, p.Status)

	assert.ErrorIs(t, Refund(o, p, 4, now), ErrAlreadyCancelled)

	other := &Payment{ID: 12, OrderID: 99, Status: StatusCompleted}
	assert.Error(t, Refund(o, other, 4, now))
}

package receipt

import (
	"context"
	"fmt"
	"strings"

	"bistro-pos/internal/order"
	"bistro-pos/internal/payment"
	"bistro-pos/internal/staff"
	"bistro-pos/internal/table"
	"bistro-pos/internal/utils"
)

const width = 42

// Restaurant is the header printed on every receipt.
type Restaurant struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// Render prints a settled (payment, order) pair. Lines come from the
// payment's own snapshot, so a refunded order edited later still prints what
// was paid. It reads both and never modifies them.
func Render(p *payment.Payment, o *order.Order, tableNumber int, server string, info Restaurant) string {
	var b strings.Builder

	center(&b, info.Name)
	center(&b, info.Address)
	center(&b, fmt.Sprintf("Phone: %s | Email: %s", info.Phone, info.Email))
	rule(&b, '=')
	center(&b, "PAYMENT RECEIPT")
	if p.Status == payment.StatusCancelled {
		center(&b, "*** CANCELLED ***")
	}
	rule(&b, '=')

	row(&b, "Receipt #:", p.ReceiptNumber)
	if p.PaidAt != nil {
		row(&b, "Date:", p.PaidAt.Format("2006-01-02 15:04:05"))
	}
	row(&b, "Order #:", fmt.Sprintf("%d", o.ID))
	if tableNumber > 0 {
		row(&b, "Table:", fmt.Sprintf("%d", tableNumber))
	} else {
		row(&b, "Table:", "N/A")
	}
	if server == "" {
		server = fmt.Sprintf("#%d", o.StaffID)
	}
	row(&b, "Server:", server)
	row(&b, "Payment Method:", methodLabel(p.Method))
	rule(&b, '-')

	for _, it := range p.Items {
		fmt.Fprintf(&b, "%s\n", truncate(it.Name, width))
		row(&b, fmt.Sprintf("  %d x $%s", it.Quantity, it.UnitPrice), "$"+it.LineTotal.String())
		if note := utils.PtrString(it.Notes); note != "" {
			fmt.Fprintf(&b, "%s\n", truncate("  * "+note, width))
		}
	}
	rule(&b, '-')

	row(&b, "Subtotal:", "$"+p.Amount.String())
	if p.Tip > 0 {
		row(&b, "Tip:", "$"+p.Tip.String())
	}
	row(&b, "TOTAL PAID:", "$"+p.TotalPaid.String())
	if p.Method == payment.MethodCash && p.AmountReceived != nil {
		row(&b, "Amount Received:", "$"+p.AmountReceived.String())
		row(&b, "Change:", "$"+p.ChangeGiven.String())
	}
	if p.CancelledAt != nil {
		row(&b, "Cancelled:", p.CancelledAt.Format("2006-01-02 15:04:05"))
	}
	rule(&b, '=')

	center(&b, "Thank you for dining with us!")
	center(&b, "Please come again")

	return b.String()
}

func methodLabel(m payment.Method) string {
	return strings.ToUpper(strings.ReplaceAll(string(m), "_", " "))
}

func center(b *strings.Builder, s string) {
	if s == "" {
		return
	}
	s = truncate(s, width)
	pad := (width - len(s)) / 2
	b.WriteString(strings.Repeat(" ", pad))
	b.WriteString(s)
	b.WriteByte('\n')
}

func row(b *strings.Builder, left, right string) {
	gap := width - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	b.WriteString(left)
	b.WriteString(strings.Repeat(" ", gap))
	b.WriteString(right)
	b.WriteByte('\n')
}

func rule(b *strings.Builder, c byte) {
	b.WriteString(strings.Repeat(string(c), width))
	b.WriteByte('\n')
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

type PaymentReader interface {
	GetPayment(ctx context.Context, paymentID int64) (*payment.Payment, error)
}

type OrderReader interface {
	GetOrder(ctx context.Context, orderID int64) (*order.Order, error)
}

type TableReader interface {
	GetByID(ctx context.Context, tableID int64) (*table.Table, error)
}

type StaffReader interface {
	GetByID(ctx context.Context, id int64) (*staff.Member, error)
}

type Service struct {
	payments PaymentReader
	orders   OrderReader
	tables   TableReader
	staff    StaffReader
	info     Restaurant
}

type Option func(*Service)

// WithStaff prints the server's name instead of their id.
func WithStaff(r StaffReader) Option {
	return func(s *Service) { s.staff = r }
}

func NewService(payments PaymentReader, orders OrderReader, tables TableReader, info Restaurant, opts ...Option) *Service {
	s := &Service{payments: payments, orders: orders, tables: tables, info: info}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// settledTuple is everything a receipt prints, read once.
type settledTuple struct {
	payment *payment.Payment
	order   *order.Order
	table   int
	server  string
}

func (s *Service) load(ctx context.Context, paymentID int64) (*settledTuple, error) {
	p, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.GetOrder(ctx, p.OrderID)
	if err != nil {
		return nil, err
	}

	st := &settledTuple{payment: p, order: o}
	if t, err := s.tables.GetByID(ctx, o.TableID); err == nil {
		st.table = t.Number
	}
	if s.staff != nil {
		if m, err := s.staff.GetByID(ctx, o.StaffID); err == nil {
			st.server = m.Name
		}
	}
	return st, nil
}

// Receipt renders the receipt of a payment from its stored snapshot.
func (s *Service) Receipt(ctx context.Context, paymentID int64) (string, error) {
	st, err := s.load(ctx, paymentID)
	if err != nil {
		return "", err
	}
	return Render(st.payment, st.order, st.table, st.server, s.info), nil
}

// ReceiptPDF is Receipt laid out as a printable PDF document.
func (s *Service) ReceiptPDF(ctx context.Context, paymentID int64) ([]byte, error) {
	st, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	return RenderPDF(st.payment, st.order, st.table, st.server, s.info)
}

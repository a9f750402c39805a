package report

import (
	"errors"
	"fmt"
	"time"

	"bistro-pos/internal/money"
)

var ErrInvalidRange = errors.New("invalid report range")

const (
	PeriodToday  = "today"
	PeriodWeek   = "week"
	PeriodMonth  = "month"
	PeriodYear   = "year"
	PeriodCustom = "custom"
)

const dateLayout = "2006-01-02"

// Range is a closed interval [Start, End] of paid_at timestamps.
type Range struct {
	Period string    `json:"period"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// ResolveRange turns a period name into concrete bounds around now. Weeks
// start on Monday. An unknown period falls back to today. Custom bounds are
// YYYY-MM-DD dates, inclusive, defaulting to the start of the month and today.
func ResolveRange(period, start, end string, now time.Time) (Range, error) {
	today := startOfDay(now)

	switch period {
	case PeriodWeek:
		offset := (int(today.Weekday()) + 6) % 7
		from := today.AddDate(0, 0, -offset)
		return Range{Period: period, Start: from, End: endOfDay(from.AddDate(0, 0, 6))}, nil
	case PeriodMonth:
		from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, now.Location())
		return Range{Period: period, Start: from, End: from.AddDate(0, 1, 0).Add(-time.Nanosecond)}, nil
	case PeriodYear:
		from := time.Date(today.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return Range{Period: period, Start: from, End: from.AddDate(1, 0, 0).Add(-time.Nanosecond)}, nil
	case PeriodCustom:
		r := Range{
			Period: period,
			Start:  time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, now.Location()),
			End:    endOfDay(now),
		}
		if start != "" {
			t, err := time.ParseInLocation(dateLayout, start, now.Location())
			if err != nil {
				return Range{}, fmt.Errorf("%w: start_date %q", ErrInvalidRange, start)
			}
			r.Start = t
		}
		if end != "" {
			t, err := time.ParseInLocation(dateLayout, end, now.Location())
			if err != nil {
				return Range{}, fmt.Errorf("%w: end_date %q", ErrInvalidRange, end)
			}
			r.End = endOfDay(t)
		}
		if r.End.Before(r.Start) {
			return Range{}, fmt.Errorf("%w: end before start", ErrInvalidRange)
		}
		return r, nil
	default:
		return Range{Period: PeriodToday, Start: today, End: endOfDay(now)}, nil
	}
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// SoldItem is one line of a settled order.
type SoldItem struct {
	MenuItemID int64
	Name       string
	Quantity   int
	UnitPrice  money.Cents
}

// Settled is one completed payment together with what it paid for.
type Settled struct {
	PaymentID     int64
	OrderID       int64
	StaffID       int64
	Amount        money.Cents
	Tip           money.Cents
	TotalPaid     money.Cents
	Method        string
	ReceiptNumber string
	PaidAt        time.Time
	Items         []SoldItem
}

type Summary struct {
	TotalSales        money.Cents `json:"total_sales"`
	TotalTips         money.Cents `json:"total_tips"`
	TotalRevenue      money.Cents `json:"total_revenue"`
	Transactions      int         `json:"total_transactions"`
	AverageOrderValue money.Cents `json:"average_order_value"`
}

type MethodBreakdown struct {
	Method string      `json:"payment_method"`
	Count  int         `json:"count"`
	Total  money.Cents `json:"total"`
}

type DailySales struct {
	Date   string      `json:"date"`
	Sales  money.Cents `json:"sales"`
	Orders int         `json:"orders"`
}

type ItemSales struct {
	MenuItemID int64       `json:"menu_item_id"`
	Name       string      `json:"name"`
	Quantity   int         `json:"total_quantity"`
	Revenue    money.Cents `json:"total_revenue"`
}

type StaffSales struct {
	StaffID int64       `json:"staff_id"`
	Name    string      `json:"name,omitempty"`
	Orders  int         `json:"orders"`
	Sales   money.Cents `json:"sales"`
	Tips    money.Cents `json:"tips"`
}

type SalesReport struct {
	Range          Range             `json:"range"`
	Summary        Summary           `json:"sales_data"`
	ByMethod       []MethodBreakdown `json:"payment_methods_breakdown"`
	Daily          []DailySales      `json:"daily_sales_trend"`
	TopItems       []ItemSales       `json:"top_selling_items"`
	Staff          []StaffSales      `json:"server_performance"`
	OrdersByStatus map[string]int    `json:"orders_overview"`
}

package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"bistro-pos/internal/logger"
	"bistro-pos/internal/money"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const TopItemsLimit = 10

type Service interface {
	SalesReport(ctx context.Context, r Range) (*SalesReport, error)
	// ExportSales writes the summary, top items and daily trend sections as CSV.
	ExportSales(ctx context.Context, r Range, w io.Writer) error
	// ExportPayments writes one CSV row per completed payment.
	ExportPayments(ctx context.Context, r Range, w io.Writer) error
}

// StaffNamer resolves display names for the server performance section.
type StaffNamer interface {
	Names(ctx context.Context, ids []int64) (map[int64]string, error)
}

type service struct {
	source Source
	staff  StaffNamer
}

type Option func(*service)

func WithStaffNames(n StaffNamer) Option {
	return func(s *service) { s.staff = n }
}

func NewService(source Source, opts ...Option) Service {
	s := &service{source: source}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) SalesReport(ctx context.Context, r Range) (*SalesReport, error) {
	var (
		settled []*Settled
		counts  map[string]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settled, err = s.source.SettledPayments(gctx, r)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.source.OrderCounts(gctx, r)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.FromCtx(ctx).Error("failed to load report data",
			zap.String("layer", "service"),
			zap.String("method", "SalesReport"),
			zap.Error(err),
		)
		return nil, fmt.Errorf("cannot build sales report: %w", err)
	}

	rep, err := Aggregate(settled)
	if err != nil {
		return nil, fmt.Errorf("cannot build sales report: %w", err)
	}
	rep.Range = r
	rep.OrdersByStatus = counts
	s.nameStaff(ctx, rep)
	return rep, nil
}

// nameStaff is best effort; a report without names is still a report.
func (s *service) nameStaff(ctx context.Context, rep *SalesReport) {
	if s.staff == nil || len(rep.Staff) == 0 {
		return
	}
	ids := make([]int64, 0, len(rep.Staff))
	for _, st := range rep.Staff {
		ids = append(ids, st.StaffID)
	}
	names, err := s.staff.Names(ctx, ids)
	if err != nil {
		logger.FromCtx(ctx).Warn("failed to resolve staff names",
			zap.String("layer", "service"),
			zap.Error(err),
		)
		return
	}
	for i := range rep.Staff {
		rep.Staff[i].Name = names[rep.Staff[i].StaffID]
	}
}

// Aggregate folds completed payments into a report. Sales are the order
// amounts before tip; revenue includes tips.
func Aggregate(settled []*Settled) (*SalesReport, error) {
	rep := &SalesReport{
		ByMethod: []MethodBreakdown{},
		Daily:    []DailySales{},
		TopItems: []ItemSales{},
		Staff:    []StaffSales{},
	}

	methods := map[string]*MethodBreakdown{}
	days := map[string]*DailySales{}
	items := map[int64]*ItemSales{}
	staff := map[int64]*StaffSales{}

	// sumErr keeps the first overflow; later additions become no-ops.
	var sumErr error
	add := func(dst *money.Cents, v money.Cents) {
		if sumErr == nil {
			*dst, sumErr = dst.Add(v)
		}
	}

	for _, p := range settled {
		add(&rep.Summary.TotalSales, p.Amount)
		add(&rep.Summary.TotalTips, p.Tip)
		add(&rep.Summary.TotalRevenue, p.TotalPaid)
		rep.Summary.Transactions++

		m, ok := methods[p.Method]
		if !ok {
			m = &MethodBreakdown{Method: p.Method}
			methods[p.Method] = m
		}
		m.Count++
		add(&m.Total, p.TotalPaid)

		day := p.PaidAt.Format(dateLayout)
		d, ok := days[day]
		if !ok {
			d = &DailySales{Date: day}
			days[day] = d
		}
		add(&d.Sales, p.Amount)
		d.Orders++

		st, ok := staff[p.StaffID]
		if !ok {
			st = &StaffSales{StaffID: p.StaffID}
			staff[p.StaffID] = st
		}
		st.Orders++
		add(&st.Sales, p.Amount)
		add(&st.Tips, p.Tip)

		for _, it := range p.Items {
			is, ok := items[it.MenuItemID]
			if !ok {
				is = &ItemSales{MenuItemID: it.MenuItemID, Name: it.Name}
				items[it.MenuItemID] = is
			}
			is.Quantity += it.Quantity
			line, err := it.UnitPrice.Mul(it.Quantity)
			if err != nil && sumErr == nil {
				sumErr = err
			}
			add(&is.Revenue, line)
		}
	}
	if sumErr != nil {
		return nil, sumErr
	}

	if n := rep.Summary.Transactions; n > 0 {
		avg := rep.Summary.TotalSales.Decimal().Div(decimal.NewFromInt(int64(n))).Round(2)
		if c, err := money.FromDecimal(avg); err == nil {
			rep.Summary.AverageOrderValue = c
		}
	}

	for _, m := range methods {
		rep.ByMethod = append(rep.ByMethod, *m)
	}
	sort.Slice(rep.ByMethod, func(i, j int) bool { return rep.ByMethod[i].Method < rep.ByMethod[j].Method })

	for _, d := range days {
		rep.Daily = append(rep.Daily, *d)
	}
	sort.Slice(rep.Daily, func(i, j int) bool { return rep.Daily[i].Date < rep.Daily[j].Date })

	for _, is := range items {
		rep.TopItems = append(rep.TopItems, *is)
	}
	sort.Slice(rep.TopItems, func(i, j int) bool {
		a, b := rep.TopItems[i], rep.TopItems[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.MenuItemID < b.MenuItemID
	})
	if len(rep.TopItems) > TopItemsLimit {
		rep.TopItems = rep.TopItems[:TopItemsLimit]
	}

	for _, st := range staff {
		rep.Staff = append(rep.Staff, *st)
	}
	sort.Slice(rep.Staff, func(i, j int) bool {
		a, b := rep.Staff[i], rep.Staff[j]
		if a.Sales != b.Sales {
			return a.Sales > b.Sales
		}
		return a.StaffID < b.StaffID
	})

	return rep, nil
}

func (s *service) ExportSales(ctx context.Context, r Range, w io.Writer) error {
	rep, err := s.SalesReport(ctx, r)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	records := [][]string{
		{"SALES SUMMARY"},
		{"Metric", "Value"},
		{"Total Sales", rep.Summary.TotalSales.String()},
		{"Total Tips", rep.Summary.TotalTips.String()},
		{"Total Revenue", rep.Summary.TotalRevenue.String()},
		{"Total Transactions", strconv.Itoa(rep.Summary.Transactions)},
		{"Average Order Value", rep.Summary.AverageOrderValue.String()},
		{},
		{"TOP SELLING ITEMS"},
		{"Item Name", "Quantity Sold", "Revenue"},
	}
	for _, it := range rep.TopItems {
		records = append(records, []string{it.Name, strconv.Itoa(it.Quantity), it.Revenue.String()})
	}
	records = append(records, []string{}, []string{"DAILY SALES TREND"}, []string{"Date", "Sales", "Orders"})
	for _, d := range rep.Daily {
		records = append(records, []string{d.Date, d.Sales.String(), strconv.Itoa(d.Orders)})
	}

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("cannot write sales export: %w", err)
	}
	return nil
}

func (s *service) ExportPayments(ctx context.Context, r Range, w io.Writer) error {
	settled, err := s.source.SettledPayments(ctx, r)
	if err != nil {
		return fmt.Errorf("cannot export payments: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"payment_id", "order_id", "receipt_number", "payment_method",
		"amount", "tip", "total_paid", "staff_id", "paid_at"}); err != nil {
		return err
	}
	for _, p := range settled {
		if err := cw.Write([]string{
			strconv.FormatInt(p.PaymentID, 10),
			strconv.FormatInt(p.OrderID, 10),
			p.ReceiptNumber,
			p.Method,
			p.Amount.String(),
			p.Tip.String(),
			p.TotalPaid.String(),
			strconv.FormatInt(p.StaffID, 10),
			p.PaidAt.UTC().Format("2006-01-02T15:04:05Z"),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename names a sales export for r.
func ExportFilename(r Range) string {
	return fmt.Sprintf("sales_report_%s_to_%s.csv", r.Start.Format(dateLayout), r.End.Format(dateLayout))
}

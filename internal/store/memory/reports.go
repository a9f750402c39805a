package memory

import (
	"context"
	"sort"

	"bistro-pos/internal/payment"
	"bistro-pos/internal/report"
)

type reportSource struct {
	s *Store
}

func (s *Store) Reports() report.Source {
	return &reportSource{s: s}
}

func (r *reportSource) SettledPayments(ctx context.Context, rg report.Range) ([]*report.Settled, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*report.Settled{}
	for _, p := range s.payments {
		if p.Status != payment.StatusCompleted || p.PaidAt == nil || !rg.Contains(*p.PaidAt) {
			continue
		}
		st := &report.Settled{
			PaymentID:     p.ID,
			OrderID:       p.OrderID,
			Amount:        p.Amount,
			Tip:           p.Tip,
			TotalPaid:     p.TotalPaid,
			Method:        string(p.Method),
			ReceiptNumber: p.ReceiptNumber,
			PaidAt:        *p.PaidAt,
		}
		if o, ok := s.orders[p.OrderID]; ok {
			st.StaffID = o.StaffID
			for _, it := range o.Items {
				st.Items = append(st.Items, report.SoldItem{
					MenuItemID: it.MenuItemID,
					Name:       it.MenuItemName,
					Quantity:   it.Quantity,
					UnitPrice:  it.UnitPrice,
				})
			}
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PaidAt.Equal(out[j].PaidAt) {
			return out[i].PaidAt.Before(out[j].PaidAt)
		}
		return out[i].PaymentID < out[j].PaymentID
	})
	return out, nil
}

func (r *reportSource) OrderCounts(ctx context.Context, rg report.Range) (map[string]int, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[string]int{}
	for _, o := range s.orders {
		if rg.Contains(o.CreatedAt) {
			counts[string(o.Status)]++
		}
	}
	return counts, nil
}

package memory

import (
	"context"
	"fmt"
	"sort"

	"bistro-pos/internal/db"
	"bistro-pos/internal/order"
	"bistro-pos/internal/payment"
	"bistro-pos/internal/table"
)

type paymentRepo struct {
	s *Store
}

func clonePayment(p *payment.Payment) *payment.Payment {
	c := *p
	c.Items = p.Items.Clone()
	if p.AmountReceived != nil {
		v := *p.AmountReceived
		c.AmountReceived = &v
	}
	if p.CancelledBy != nil {
		v := *p.CancelledBy
		c.CancelledBy = &v
	}
	if p.PaidAt != nil {
		v := *p.PaidAt
		c.PaidAt = &v
	}
	if p.CancelledAt != nil {
		v := *p.CancelledAt
		c.CancelledAt = &v
	}
	return &c
}

func (r *paymentRepo) Settle(ctx context.Context, in payment.SettleInput, actorID int64, receiptNo string) (*payment.Payment, *order.Order, error) {
	s := r.s
	unlock, err := s.lockOrder(ctx, in.OrderID)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	o, err := s.snapshot(in.OrderID)
	if err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	hasCompleted := false
	for _, p := range s.payments {
		if p.OrderID == o.ID && p.Status == payment.StatusCompleted {
			hasCompleted = true
			break
		}
	}
	s.mu.RUnlock()

	now := s.clock()
	p, err := payment.NewSettlement(o, hasCompleted, in, actorID, receiptNo, now)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	for _, existing := range s.payments {
		if existing.ReceiptNumber == p.ReceiptNumber {
			return nil, nil, fmt.Errorf("%w: receipt number %s taken", db.ErrConcurrentModification, p.ReceiptNumber)
		}
	}
	if _, ok := s.tables[o.TableID]; !ok {
		return nil, nil, errTableNotFound(o.TableID)
	}

	s.nextPaymentID++
	p.ID = s.nextPaymentID
	s.payments[p.ID] = clonePayment(p)
	s.commitOrder(o, now)
	s.releaseTableLocked(o)

	return p, o, nil
}

func (r *paymentRepo) Cancel(ctx context.Context, paymentID, actorID int64) (*payment.Payment, *order.Order, error) {
	s := r.s

	s.mu.RLock()
	stored, ok := s.payments[paymentID]
	var orderID int64
	if ok {
		orderID = stored.OrderID
	}
	s.mu.RUnlock()
	if !ok {
		return nil, nil, errPaymentNotFound(paymentID)
	}

	unlock, err := s.lockOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	o, err := s.snapshot(orderID)
	if err != nil {
		return nil, nil, err
	}
	s.mu.RLock()
	p := clonePayment(s.payments[paymentID])
	s.mu.RUnlock()

	now := s.clock()
	if err := payment.Refund(o, p, actorID, now); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if _, ok := s.tables[o.TableID]; !ok {
		return nil, nil, errTableNotFound(o.TableID)
	}
	s.payments[p.ID] = clonePayment(p)
	s.commitOrder(o, now)
	_ = s.setTable(o.TableID, table.Occupied)

	return p, o, nil
}

func (r *paymentRepo) GetByID(ctx context.Context, paymentID int64) (*payment.Payment, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[paymentID]
	if !ok {
		return nil, errPaymentNotFound(paymentID)
	}
	return clonePayment(p), nil
}

func (r *paymentRepo) List(ctx context.Context, orderID *int64, limit int) ([]*payment.Payment, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*payment.Payment{}
	for _, p := range s.payments {
		if orderID != nil && p.OrderID != *orderID {
			continue
		}
		out = append(out, clonePayment(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

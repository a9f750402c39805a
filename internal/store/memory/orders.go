package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"bistro-pos/internal/money"
	"bistro-pos/internal/order"
	"bistro-pos/internal/table"
)

type orderRepo struct {
	s *Store
}

// priceLocked looks up an available menu item. Caller holds mu.
func (s *Store) priceLocked(menuItemID int64) (money.Cents, string, error) {
	it, ok := s.menu[menuItemID]
	if !ok || !it.Available {
		return 0, "", errMenuItemNotFound(menuItemID)
	}
	return it.Price, it.Name, nil
}

func (s *Store) addItemLocked(o *order.Order, in order.ItemInput) (*order.LineItem, error) {
	if err := o.CheckEditable(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	price, name, err := s.priceLocked(in.MenuItemID)
	if err != nil {
		return nil, err
	}

	li := &order.LineItem{
		MenuItemID:   in.MenuItemID,
		MenuItemName: name,
		Quantity:     in.Quantity,
		UnitPrice:    price,
		Notes:        in.Notes,
	}
	if err := o.AddItem(li); err != nil {
		return nil, err
	}
	return li, nil
}

func (r *orderRepo) Create(ctx context.Context, staffID int64, in order.CreateInput) (*order.Order, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[in.TableID]
	if !ok {
		return nil, errTableNotFound(in.TableID)
	}
	if t.Availability != table.Available {
		return nil, fmt.Errorf("%w: table %d is %s", table.ErrTableUnavailable, in.TableID, t.Availability)
	}

	now := s.clock()
	o := &order.Order{
		ID:        s.nextOrderID + 1,
		TableID:   in.TableID,
		StaffID:   staffID,
		Status:    order.StatusPending,
		Notes:     in.Notes,
		CreatedAt: now,
		Items:     []*order.LineItem{},
	}
	for _, item := range in.Items {
		if _, err := s.addItemLocked(o, item); err != nil {
			return nil, fmt.Errorf("cannot add item: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.nextOrderID = o.ID
	s.orderMu[o.ID] = &sync.Mutex{}
	s.commitOrder(o, now)
	t.Availability = table.Occupied

	return o, nil
}

func (r *orderRepo) AddItems(ctx context.Context, orderID int64, items []order.ItemInput) (*order.Order, []*order.LineItem, error) {
	s := r.s
	unlock, err := s.lockOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	o, err := s.snapshot(orderID)
	if err != nil {
		return nil, nil, err
	}

	added := make([]*order.LineItem, 0, len(items))
	s.mu.RLock()
	for _, in := range items {
		li, err := s.addItemLocked(o, in)
		if err != nil {
			s.mu.RUnlock()
			return nil, nil, fmt.Errorf("cannot add item: %w", err)
		}
		added = append(added, li)
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	s.commitOrder(o, s.clock())
	return o, added, nil
}

func (r *orderRepo) UpdateItem(ctx context.Context, orderID, itemID int64, patch order.ItemPatch) (*order.Order, error) {
	return r.mutate(ctx, orderID, func(o *order.Order) error {
		if _, err := o.UpdateItem(itemID, patch); err != nil {
			return fmt.Errorf("cannot update item: %w", err)
		}
		return nil
	})
}

func (r *orderRepo) RemoveItem(ctx context.Context, orderID, itemID int64) (*order.Order, error) {
	return r.mutate(ctx, orderID, func(o *order.Order) error {
		if _, err := o.RemoveItem(itemID); err != nil {
			return fmt.Errorf("cannot remove item: %w", err)
		}
		return nil
	})
}

func (r *orderRepo) UpdateStatus(ctx context.Context, orderID int64, to order.Status) (*order.Order, order.Status, error) {
	var from order.Status
	o, err := r.mutate(ctx, orderID, func(o *order.Order) error {
		from = o.Status
		if err := o.TransitionTo(to, order.TriggerManual); err != nil {
			return fmt.Errorf("cannot change status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return o, from, nil
}

// mutate applies fn to a private copy of the order and commits it. Cancelling
// an order releases its table in the same step.
func (r *orderRepo) mutate(ctx context.Context, orderID int64, fn func(o *order.Order) error) (*order.Order, error) {
	s := r.s
	unlock, err := s.lockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	o, err := s.snapshot(orderID)
	if err != nil {
		return nil, err
	}
	if err := fn(o); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.Status == order.StatusCanceled {
		if _, ok := s.tables[o.TableID]; !ok {
			return nil, errTableNotFound(o.TableID)
		}
	}
	s.commitOrder(o, s.clock())
	if o.Status == order.StatusCanceled {
		s.releaseTableLocked(o)
	}
	return o, nil
}

func (r *orderRepo) GetByID(ctx context.Context, orderID int64) (*order.Order, error) {
	return r.s.snapshot(orderID)
}

func (r *orderRepo) List(ctx context.Context, f order.Filter) ([]*order.Order, error) {
	f = f.Normalize()
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*order.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if f.Match(o) {
			matched = append(matched, o)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	out := []*order.Order{}
	for i := f.Offset(); i < len(matched) && len(out) < f.Limit; i++ {
		out = append(out, matched[i].Clone())
	}
	return out, nil
}

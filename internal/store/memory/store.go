// Package memory is an in-process store with the same transactional
// semantics as the postgres repositories. Every mutation of an order runs
// under that order's mutex, works on a clone and publishes the clone only if
// every check passed and ctx is still live.
package memory

import (
	"context"
	"sync"
	"time"

	"bistro-pos/internal/menu"
	"bistro-pos/internal/order"
	"bistro-pos/internal/payment"
	"bistro-pos/internal/staff"
	"bistro-pos/internal/table"
)

type Store struct {
	// mu guards every map and counter below. Order mutexes are always taken
	// before mu.
	mu       sync.RWMutex
	orders   map[int64]*order.Order
	orderMu  map[int64]*sync.Mutex
	payments map[int64]*payment.Payment
	tables   map[int64]*table.Table
	menu     map[int64]*menu.Item
	cats     map[int64]*menu.Category
	staff    map[int64]*staff.Member

	nextOrderID   int64
	nextItemID    int64
	nextPaymentID int64
	nextTableID   int64
	nextMenuID    int64
	nextCatID     int64
	nextStaffID   int64

	now func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		orders:   map[int64]*order.Order{},
		orderMu:  map[int64]*sync.Mutex{},
		payments: map[int64]*payment.Payment{},
		tables:   map[int64]*table.Table{},
		menu:     map[int64]*menu.Item{},
		cats:     map[int64]*menu.Category{},
		staff:    map[int64]*staff.Member{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) clock() time.Time {
	return s.now().UTC()
}

// lockOrder serializes mutations of one order.
func (s *Store) lockOrder(ctx context.Context, orderID int64) (func(), error) {
	s.mu.RLock()
	m, ok := s.orderMu[orderID]
	s.mu.RUnlock()
	if !ok {
		return nil, errOrderNotFound(orderID)
	}

	m.Lock()
	if err := ctx.Err(); err != nil {
		m.Unlock()
		return nil, err
	}
	return m.Unlock, nil
}

// snapshot returns a private copy of the stored order.
func (s *Store) snapshot(orderID int64) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, errOrderNotFound(orderID)
	}
	return o.Clone(), nil
}

// commitOrder publishes o under mu, assigning ids to new items and bumping
// the version. Caller holds mu for writing.
func (s *Store) commitOrder(o *order.Order, now time.Time) {
	for _, it := range o.Items {
		if it.ID == 0 {
			s.nextItemID++
			it.ID = s.nextItemID
			it.OrderID = o.ID
			it.CreatedAt = now
		}
	}
	o.Version++
	o.UpdatedAt = now
	s.orders[o.ID] = o.Clone()
}

func (s *Store) setTable(tableID int64, a table.Availability) error {
	t, ok := s.tables[tableID]
	if !ok {
		return errTableNotFound(tableID)
	}
	t.Availability = a
	return nil
}

// releaseTableLocked frees o's table unless another open order still sits
// at it. Caller holds mu for writing.
func (s *Store) releaseTableLocked(o *order.Order) {
	for _, other := range s.orders {
		if other.ID != o.ID && other.TableID == o.TableID && !other.Status.Frozen() {
			return
		}
	}
	_ = s.setTable(o.TableID, table.Available)
}

func (s *Store) Orders() order.Repository {
	return &orderRepo{s: s}
}

func (s *Store) Payments() payment.Repository {
	return &paymentRepo{s: s}
}

func (s *Store) Tables() table.Repository {
	return &tableRepo{s: s}
}

func (s *Store) Menu() menu.Repository {
	return &menuRepo{s: s}
}

func (s *Store) Staff() staff.Repository {
	return &staffRepo{s: s}
}

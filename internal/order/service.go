package order

import (
	"context"
	"errors"

	"bistro-pos/internal/auth"
	"bistro-pos/internal/db"
	"bistro-pos/internal/events"
	"bistro-pos/internal/logger"
	"bistro-pos/internal/metrics"

	"go.uber.org/zap"
)

type Service interface {
	CreateOrder(ctx context.Context, actor auth.Actor, in CreateInput) (*Order, error)
	AddLineItems(ctx context.Context, actor auth.Actor, orderID int64, items []ItemInput) (*Order, error)
	AddLineItem(ctx context.Context, actor auth.Actor, orderID int64, item ItemInput) (*Order, error)
	UpdateLineItem(ctx context.Context, actor auth.Actor, orderID, itemID int64, patch ItemPatch) (*Order, error)
	RemoveLineItem(ctx context.Context, actor auth.Actor, orderID, itemID int64) (*Order, error)
	SetStatus(ctx context.Context, actor auth.Actor, orderID int64, to Status) (*Order, error)
	GetOrder(ctx context.Context, orderID int64) (*Order, error)
	ListOrders(ctx context.Context, f Filter) ([]*Order, error)
}

type service struct {
	repo      Repository
	publisher events.Publisher
	metrics   *metrics.Registry
}

func NewService(repo Repository, publisher events.Publisher, m *metrics.Registry) Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if m == nil {
		m = metrics.NewRegistry()
	}
	return &service{repo: repo, publisher: publisher, metrics: m}
}

func (s *service) log(ctx context.Context, method string) *zap.Logger {
	return logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", method),
	)
}

// retry reruns fn when it lost a race on the order row.
func (s *service) retry(ctx context.Context, fn func() error) error {
	retries, err := db.Retry(ctx, db.DefaultAttempts, fn)
	s.metrics.ConcurrencyRetries.Add(uint64(retries))
	if errors.Is(err, db.ErrConcurrentModification) {
		s.metrics.ConcurrencyFailures.Inc()
	}
	return err
}

func (s *service) CreateOrder(ctx context.Context, actor auth.Actor, in CreateInput) (*Order, error) {
	log := s.log(ctx, "CreateOrder").With(zap.Int64("table_id", in.TableID))

	if !actor.Valid() {
		return nil, auth.ErrNoActor
	}
	for _, it := range in.Items {
		if err := it.Validate(); err != nil {
			return nil, err
		}
	}

	var o *Order
	err := s.retry(ctx, func() error {
		var err error
		o, err = s.repo.Create(ctx, actor.ID, in)
		return err
	})
	if err != nil {
		log.Warn("create order failed", zap.Error(err))
		return nil, err
	}

	s.metrics.OrdersCreated.Inc()
	s.metrics.ItemsAdded.Add(uint64(len(o.Items)))
	events.Emit(ctx, s.publisher, s.metrics, events.Event{
		Type:    events.OrderCreated,
		OrderID: o.ID,
		ActorID: actor.ID,
		Payload: o,
	})
	return o, nil
}

func (s *service) AddLineItems(ctx context.Context, actor auth.Actor, orderID int64, items []ItemInput) (*Order, error) {
	log := s.log(ctx, "AddLineItems").With(zap.Int64("order_id", orderID))

	if !actor.Valid() {
		return nil, auth.ErrNoActor
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return nil, err
		}
	}

	var (
		o     *Order
		added []*LineItem
	)
	err := s.retry(ctx, func() error {
		var err error
		o, added, err = s.repo.AddItems(ctx, orderID, items)
		return err
	})
	if err != nil {
		log.Info("add items rejected", zap.Error(err))
		return nil, err
	}

	s.metrics.ItemsAdded.Add(uint64(len(added)))
	s.emitItemsChanged(ctx, actor, o)
	return o, nil
}

func (s *service) AddLineItem(ctx context.Context, actor auth.Actor, orderID int64, item ItemInput) (*Order, error) {
	return s.AddLineItems(ctx, actor, orderID, []ItemInput{item})
}

func (s *service) UpdateLineItem(ctx context.Context, actor auth.Actor, orderID, itemID int64, patch ItemPatch) (*Order, error) {
	if !actor.Valid() {
		return nil, auth.ErrNoActor
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var o *Order
	err := s.retry(ctx, func() error {
		var err error
		o, err = s.repo.UpdateItem(ctx, orderID, itemID, patch)
		return err
	})
	if err != nil {
		s.log(ctx, "UpdateLineItem").Info("update item rejected", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, err
	}

	s.emitItemsChanged(ctx, actor, o)
	return o, nil
}

func (s *service) RemoveLineItem(ctx context.Context, actor auth.Actor, orderID, itemID int64) (*Order, error) {
	if !actor.Valid() {
		return nil, auth.ErrNoActor
	}

	var o *Order
	err := s.retry(ctx, func() error {
		var err error
		o, err = s.repo.RemoveItem(ctx, orderID, itemID)
		return err
	})
	if err != nil {
		s.log(ctx, "RemoveLineItem").Info("remove item rejected", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, err
	}

	s.emitItemsChanged(ctx, actor, o)
	return o, nil
}

func (s *service) SetStatus(ctx context.Context, actor auth.Actor, orderID int64, to Status) (*Order, error) {
	log := s.log(ctx, "SetStatus").With(zap.Int64("order_id", orderID), zap.String("to", string(to)))

	if !actor.Valid() {
		return nil, auth.ErrNoActor
	}
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}

	var (
		o    *Order
		from Status
	)
	err := s.retry(ctx, func() error {
		var err error
		o, from, err = s.repo.UpdateStatus(ctx, orderID, to)
		return err
	})
	if err != nil {
		log.Info("status change rejected", zap.Error(err))
		return nil, err
	}

	s.metrics.StatusChanges.Inc()
	events.Emit(ctx, s.publisher, s.metrics, events.Event{
		Type:    events.OrderStatusChanged,
		OrderID: o.ID,
		ActorID: actor.ID,
		Payload: map[string]Status{"from": from, "to": o.Status},
	})
	return o, nil
}

func (s *service) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

func (s *service) ListOrders(ctx context.Context, f Filter) ([]*Order, error) {
	return s.repo.List(ctx, f.Normalize())
}

func (s *service) emitItemsChanged(ctx context.Context, actor auth.Actor, o *Order) {
	events.Emit(ctx, s.publisher, s.metrics, events.Event{
		Type:    events.OrderItemsChanged,
		OrderID: o.ID,
		ActorID: actor.ID,
		Payload: map[string]any{
			"total_amount": o.TotalAmount,
			"item_count":   len(o.Items),
		},
	})
}

package payment

import (
	"context"
	"errors"
	"time"

	"bistro-pos/internal/auth"
	"bistro-pos/internal/db"
	"bistro-pos/internal/events"
	"bistro-pos/internal/logger"
	"bistro-pos/internal/metrics"
	"bistro-pos/internal/order"
	"bistro-pos/internal/utils"

	"go.uber.org/zap"
)

const defaultListLimit = 50

type Service interface {
	Settle(ctx context.Context, actor auth.Actor, in SettleInput) (*Payment, error)
	Cancel(ctx context.Context, actor auth.Actor, paymentID int64) (*Payment, error)
	GetPayment(ctx context.Context, paymentID int64) (*Payment, error)
	ListPayments(ctx context.Context, orderID *int64) ([]*Payment, error)
}

type service struct {
	repo      Repository
	publisher events.Publisher
	metrics   *metrics.Registry
	receiptNo func(time.Time) string
}

func NewService(repo Repository, publisher events.Publisher, m *metrics.Registry) Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if m == nil {
		m = metrics.NewRegistry()
	}
	return &service{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		receiptNo: utils.GenerateReceiptNumber,
	}
}

func (s *service) retry(ctx context.Context, fn func() error) error {
	retries, err := db.Retry(ctx, db.DefaultAttempts, fn)
	s.metrics.ConcurrencyRetries.Add(uint64(retries))
	if errors.Is(err, db.ErrConcurrentModification) {
		s.metrics.ConcurrencyFailures.Inc()
	}
	return err
}

func (s *service) Settle(ctx context.Context, actor auth.Actor, in SettleInput) (*Payment, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Settle"),
		zap.Int64("order_id", in.OrderID),
	)

	if !actor.Valid() {
		return nil, auth.ErrNoActor
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	timer := metrics.StartTimer()
	var (
		p *Payment
		o *order.Order
	)
	err := s.retry(ctx, func() error {
		var err error
		p, o, err = s.repo.Settle(ctx, in, actor.ID, s.receiptNo(time.Now()))
		return err
	})
	if err != nil {
		log.Info("settlement rejected", zap.Error(err))
		return nil, err
	}

	s.metrics.PaymentsSettled.Inc()
	s.metrics.ObserveSettle(timer.Duration())
	events.Emit(ctx, s.publisher, s.metrics, events.Event{
		Type:    events.PaymentSettled,
		OrderID: o.ID,
		ActorID: actor.ID,
		Payload: p,
	})
	return p, nil
}

func (s *service) Cancel(ctx context.Context, actor auth.Actor, paymentID int64) (*Payment, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Cancel"),
		zap.Int64("payment_id", paymentID),
	)

	if !actor.Valid() {
		return nil, auth.ErrNoActor
	}

	var (
		p *Payment
		o *order.Order
	)
	err := s.retry(ctx, func() error {
		var err error
		p, o, err = s.repo.Cancel(ctx, paymentID, actor.ID)
		return err
	})
	if err != nil {
		log.Info("payment cancel rejected", zap.Error(err))
		return nil, err
	}

	s.metrics.PaymentsCancelled.Inc()
	events.Emit(ctx, s.publisher, s.metrics, events.Event{
		Type:    events.PaymentCancelled,
		OrderID: o.ID,
		ActorID: actor.ID,
		Payload: p,
	})
	return p, nil
}

func (s *service) GetPayment(ctx context.Context, paymentID int64) (*Payment, error) {
	return s.repo.GetByID(ctx, paymentID)
}

func (s *service) ListPayments(ctx context.Context, orderID *int64) ([]*Payment, error) {
	return s.repo.List(ctx, orderID, defaultListLimit)
}

package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Registry holds the process-wide POS counters.
type Registry struct {
	OrdersCreated     Counter
	ItemsAdded        Counter
	StatusChanges     Counter
	PaymentsSettled   Counter
	PaymentsCancelled Counter
	// Transactions that lost a race on the order row and were retried.
	ConcurrencyRetries Counter
	// Transactions that still lost after the last retry.
	ConcurrencyFailures Counter
	EventsPublished     Counter
	EventsFailed        Counter

	settleNanos Counter
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) ObserveSettle(d time.Duration) {
	if d > 0 {
		r.settleNanos.Add(uint64(d))
	}
}

func (r *Registry) Snapshot() map[string]uint64 {
	settled := r.PaymentsSettled.Load()
	var avg uint64
	if settled > 0 {
		avg = r.settleNanos.Load() / settled / uint64(time.Microsecond)
	}
	return map[string]uint64{
		"orders_created":       r.OrdersCreated.Load(),
		"items_added":          r.ItemsAdded.Load(),
		"status_changes":       r.StatusChanges.Load(),
		"payments_settled":     r.PaymentsSettled.Load(),
		"payments_cancelled":   r.PaymentsCancelled.Load(),
		"concurrency_retries":  r.ConcurrencyRetries.Load(),
		"concurrency_failures": r.ConcurrencyFailures.Load(),
		"events_published":     r.EventsPublished.Load(),
		"events_failed":        r.EventsFailed.Load(),
		"settle_avg_us":        avg,
	}
}

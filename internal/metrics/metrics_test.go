package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCounter(t *testing.T) {
	var c Counter
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()
	c.Add(10)

	assert.Equal(t, uint64(60), c.Load())
}

func TestTimer(t *testing.T) {
	timer := StartTimer()
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.Duration(), time.Millisecond)
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	r.PaymentsSettled.Inc()
	r.PaymentsSettled.Inc()
	r.ObserveSettle(2 * time.Millisecond)
	r.ObserveSettle(4 * time.Millisecond)
	r.ConcurrencyRetries.Inc()

	snap := r.Snapshot()
	assert.Equal(t, uint64(2), snap["payments_settled"])
	assert.Equal(t, uint64(1), snap["concurrency_retries"])
	assert.Equal(t, uint64(3000), snap["settle_avg_us"])
	assert.Equal(t, uint64(0), snap["orders_created"])
}

package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"bistro-pos/internal/auth"
	"bistro-pos/internal/utils"

	"golang.org/x/time/rate"
)

// Tier is one token bucket shape. Each caller gets a separate bucket per tier.
type Tier struct {
	Name  string
	Limit rate.Limit
	Burst int
}

var (
	// TierPayment throttles settle and cancel, the only calls that move money.
	TierPayment = Tier{Name: "payment", Limit: rate.Limit(2), Burst: 5}
	// TierTerminal serves order-entry terminals that batch item edits.
	TierTerminal = Tier{Name: "terminal", Limit: rate.Limit(20), Burst: 40}
	TierGeneral  = Tier{Name: "general", Limit: rate.Limit(10), Burst: 20}
)

const (
	sweepEvery = time.Minute
	idleAfter  = 3 * time.Minute
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keys buckets by staff id, then device id, then client ip.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewRateLimiter starts the idle-bucket sweeper; Close stops it.
func NewRateLimiter() *RateLimiter {
	l := &RateLimiter{
		buckets: map[string]*bucket{},
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go l.sweep()
	return l
}

func (l *RateLimiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *RateLimiter) sweep() {
	t := time.NewTicker(sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-t.C:
			l.evictIdle()
		}
	}
}

func (l *RateLimiter) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-idleAfter)
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

func (l *RateLimiter) limiter(key string, tier Tier) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(tier.Limit, tier.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = l.now()
	return b.limiter
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tier := tierFor(r)
		key := identity(r) + ":" + tier.Name

		lim := l.limiter(key, tier)
		if !lim.Allow() {
			retry := math.Ceil(1 / float64(tier.Limit))
			w.Header().Set("Retry-After", strconv.Itoa(int(retry)))
			utils.WriteJSONError(w, "too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func identity(r *http.Request) string {
	if actor, ok := auth.ActorFrom(r.Context()); ok {
		return fmt.Sprintf("staff:%d", actor.ID)
	}
	if deviceID := r.Header.Get("X-Device-ID"); deviceID != "" {
		return "device:" + deviceID
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

func tierFor(r *http.Request) Tier {
	if isPaymentMutation(r) {
		return TierPayment
	}
	if r.Header.Get("X-Client-Type") == "terminal" {
		return TierTerminal
	}
	return TierGeneral
}

// isPaymentMutation matches POST /orders/{id}/payments and POST /payments/{id}/cancel.
func isPaymentMutation(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	p := strings.TrimSuffix(r.URL.Path, "/")
	return strings.HasSuffix(p, "/payments") ||
		(strings.HasPrefix(p, "/payments/") && strings.HasSuffix(p, "/cancel"))
}

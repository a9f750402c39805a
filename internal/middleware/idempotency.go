package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bistro-pos/internal/auth"
	"bistro-pos/internal/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const IdempotencyHeader = "Idempotency-Key"

// KeyStore is the part of *redis.Client the idempotency guard uses.
type KeyStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Idempotency rejects a replayed POST carrying an Idempotency-Key already seen
// within ttl. Keys are released again when the handler fails with a 5xx so the
// client may retry. Requests without the header are not guarded.
func Idempotency(store KeyStore, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idemKey := r.Header.Get(IdempotencyHeader)
			if r.Method != http.MethodPost || idemKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			log := logger.FromCtx(r.Context()).With(zap.String("idempotency_key", idemKey))

			redisKey := idempotencyRedisKey(r, idemKey)
			ok, err := store.SetNX(r.Context(), redisKey, "processing", ttl).Result()
			if err != nil {
				// Fail open: the order row lock still prevents double settlement.
				log.Warn("idempotency store unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				log.Info("duplicate request rejected")
				http.Error(w, "duplicate request", http.StatusConflict)
				return
			}

			rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status >= http.StatusInternalServerError {
				if err := store.Del(context.WithoutCancel(r.Context()), redisKey).Err(); err != nil {
					log.Warn("failed to release idempotency key", zap.Error(err))
				}
			}
		})
	}
}

func idempotencyRedisKey(r *http.Request, key string) string {
	owner := "anon"
	if actor, ok := auth.ActorFrom(r.Context()); ok {
		owner = fmt.Sprintf("%d", actor.ID)
	}
	return fmt.Sprintf("idempotent-key:%s:%s:%s", owner, r.URL.Path, key)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

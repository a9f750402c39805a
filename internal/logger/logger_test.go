package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	t.Cleanup(Replace(zap.New(core)))
	return logs
}

func TestInit(t *testing.T) {
	t.Cleanup(Replace(log))

	for _, env := range []string{"production", "development", ""} {
		Init(env)
		require.NotNil(t, log, env)
	}
}

func TestL_BuildsOnFirstUse(t *testing.T) {
	t.Cleanup(Replace(nil))
	t.Setenv("APP_ENV", "test")

	assert.NotNil(t, L())
	assert.Same(t, L(), L())
}

func TestReplace(t *testing.T) {
	original := L()
	restore := Replace(zap.NewNop())
	assert.NotSame(t, original, L())

	restore()
	assert.Same(t, original, L())
}

func TestFromCtx(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	t.Run("RequestAndActor", func(t *testing.T) {
		ctx := WithActorID(WithRequestID(context.Background(), "req-1"), 42)
		FromCtx(ctx).Info("payment settled")

		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, int64(42), fields["actor_id"])
	})

	t.Run("BareContext", func(t *testing.T) {
		FromCtx(context.Background()).Info("startup")

		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		assert.NotContains(t, entries[0].ContextMap(), "request_id")
		assert.NotContains(t, entries[0].ContextMap(), "actor_id")
	})

	assert.Empty(t, RequestIDFrom(context.Background()))
	_, ok := ActorIDFrom(context.Background())
	assert.False(t, ok)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	t.Run("Assigned", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/orders", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
	})

	t.Run("Propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set(RequestIDHeader, "till-7")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, "till-7", seen)
		assert.Equal(t, "till-7", rr.Header().Get(RequestIDHeader))
	})
}

func TestLoggingMiddleware(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	tests := []struct {
		name   string
		status int
		level  zapcore.Level
	}{
		{"OK", http.StatusOK, zapcore.InfoLevel},
		{"Conflict", http.StatusConflict, zapcore.WarnLevel},
		{"ServerError", http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Use(LoggingMiddleware)
			r.Post("/orders/{id}/payments", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("done"))
			})

			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/orders/12/payments", nil))

			entries := logs.TakeAll()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			assert.Equal(t, "request completed", entries[0].Message)

			fields := entries[0].ContextMap()
			assert.Equal(t, "/orders/12/payments", fields["path"])
			assert.Equal(t, "/orders/{id}/payments", fields["route"])
			assert.Equal(t, int64(tt.status), fields["status"])
			assert.Equal(t, int64(4), fields["bytes"])
		})
	}
}

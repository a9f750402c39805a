package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	actorIDKey   ctxKey = "actor_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// WithActorID tags the context so every log line of the request names the staff member.
func WithActorID(ctx context.Context, actorID int64) context.Context {
	return context.WithValue(ctx, actorIDKey, actorID)
}

func ActorIDFrom(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(actorIDKey).(int64)
	return v, ok
}

// FromCtx returns logger with request_id and actor_id automatically added
func FromCtx(ctx context.Context) *zap.Logger {
	l := L()
	if reqID := RequestIDFrom(ctx); reqID != "" {
		l = l.With(zap.String("request_id", reqID))
	}
	if actorID, ok := ActorIDFrom(ctx); ok {
		l = l.With(zap.Int64("actor_id", actorID))
	}
	return l
}

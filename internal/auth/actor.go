package auth

import (
	"context"
	"errors"
)

// Staff roles as issued in tokens. Only recorded; no policy is enforced here.
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
	RoleWaiter  = "waiter"
)

var ErrNoActor = errors.New("no acting staff member")

// Actor is the staff member performing an operation. Services take it explicitly
// and record its ID on every order and payment they write.
type Actor struct {
	ID   int64
	Role string
}

func (a Actor) Valid() bool {
	return a.ID > 0
}

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok && a.Valid()
}

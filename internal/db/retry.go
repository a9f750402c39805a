package db

import (
	"context"
	"errors"
	"time"
)

const DefaultAttempts = 3

// Retry runs fn until it succeeds, fails with anything other than
// ErrConcurrentModification, or attempts run out. It reports how many
// retries were made.
func Retry(ctx context.Context, attempts int, fn func() error) (int, error) {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return i - 1, err
			case <-time.After(time.Duration(i) * 5 * time.Millisecond):
			}
		}

		err = fn()
		if err == nil || !errors.Is(err, ErrConcurrentModification) {
			return i, err
		}
	}
	return attempts - 1, err
}

package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("SucceedsAfterConflict", func(t *testing.T) {
		calls := 0
		retries, err := Retry(ctx, 3, func() error {
			calls++
			if calls < 2 {
				return fmt.Errorf("save: %w", ErrConcurrentModification)
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.Equal(t, 1, retries)
	})

	t.Run("GivesUp", func(t *testing.T) {
		calls := 0
		retries, err := Retry(ctx, 3, func() error {
			calls++
			return ErrConcurrentModification
		})

		assert.ErrorIs(t, err, ErrConcurrentModification)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 2, retries)
	})

	t.Run("OtherErrorsNotRetried", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		_, err := Retry(ctx, 3, func() error {
			calls++
			return boom
		})

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("StopsOnCancelledContext", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		calls := 0
		_, err := Retry(cctx, 3, func() error {
			calls++
			cancel()
			return ErrConcurrentModification
		})

		assert.ErrorIs(t, err, ErrConcurrentModification)
		assert.Equal(t, 1, calls)
	})
}

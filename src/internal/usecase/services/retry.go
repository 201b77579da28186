package services

import (
	"context"
	"errors"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/commons"
)

const maxContentionRetries = 3

// withContentionRetry re-runs fn while it keeps losing optimistic version
// races, with doubling backoff, then surfaces the final ErrContention.
// Validation errors pass through on the first occurrence.
func withContentionRetry(ctx context.Context, fn func() error) error {
	backoff := 10 * time.Millisecond

	var err error
	for attempt := 0; attempt < maxContentionRetries; attempt++ {
		err = fn()
		if !errors.Is(err, commons.ErrContention) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

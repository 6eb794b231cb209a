package gitworkspace

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
)

const (
	transportAttempts = 5
	transportDelay    = time.Second
)

// withTransportRetries runs a network-facing git operation up to
// transportAttempts times with a fixed delay between attempts. Context
// cancellation during the delay aborts the loop; the last error is
// surfaced once the budget is exhausted.
func withTransportRetries[T any](ctx context.Context, op string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= transportAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		logger.Warnf("Git %s failed (%d/%d): %v", op, attempt, transportAttempts, err)
		if attempt < transportAttempts {
			if sleepErr := sleepContext(ctx, transportDelay); sleepErr != nil {
				return zero, sleepErr
			}
		}
	}
	return zero, entities.NewError(entities.ErrTransport, "",
		"git "+op+" failed after retries", lastErr)
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

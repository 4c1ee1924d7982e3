package match

import (
	"context"
	"errors"
	"time"
)

// ErrRetryBudgetExhausted marks a bounded wait that ran out of attempts
// without its condition ever holding. Callers wrap it with what they were
// waiting for.
var ErrRetryBudgetExhausted = errors.New("retry budget exhausted")

// pollUntil invokes check up to attempts times, sleeping interval between
// tries. check returns done to stop successfully or an error to abort
// immediately; ctx cancellation aborts mid-wait. The shared game table has
// no notification mechanism, so every wait in a match is such a bounded
// poll.
func pollUntil(ctx context.Context, interval time.Duration, attempts int, check func() (bool, error)) error {
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for i := 0; i < attempts; i++ {
		done, err := check()
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return ErrRetryBudgetExhausted
}

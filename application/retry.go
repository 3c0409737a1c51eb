package application

import (
	"context"
	"time"
)

// RetryPolicy retries an operation with a fixed delay and no attempt limit.
// Do blocks the caller until the operation succeeds or ctx is done.
type RetryPolicy struct {
	Delay time.Duration

	// Sleep waits for d. Defaults to a context aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (p RetryPolicy) Do(ctx context.Context, op func(attempt int) error, onFailure func(attempt int, err error)) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(attempt)
		if err == nil {
			return nil
		}

		if onFailure != nil {
			onFailure(attempt, err)
		}

		if err := sleep(ctx, p.Delay); err != nil {
			return err
		}
	}
}

func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package retry

import (
	"context"
	"time"
)

// Sleeper abstracts the delay between retry attempts
// Enables tests to count sleeps without waiting for them
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// ClockSleeper implements Sleeper using a real timer, honoring context
// cancellation so a terminated run does not linger in a backoff window
type ClockSleeper struct{}

func (ClockSleeper) Sleep(ctx context.Context, d time.Duration) error {
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

// FakeSleeper implements Sleeper for testing
// Records requested durations without actually sleeping
type FakeSleeper struct {
	Slept []time.Duration
}

func (f *FakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.Slept = append(f.Slept, d)
	return nil
}

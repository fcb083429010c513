package upgrade

import (
	"context"
	"time"

	"github.com/juju/clock"
)

// CheckFunc inspects a resource once. It returns done when the resource reached
// a terminal state; a non-nil error stops polling.
type CheckFunc func(ctx context.Context, attempt int) (done bool, err error)

// Poller calls a CheckFunc immediately and then on a fixed interval until it
// reports done, fails, the timeout elapses or the context is cancelled. The last
// check happens at the deadline.
type Poller struct {
	Interval time.Duration
	Timeout  time.Duration
	Clock    clock.Clock
}

func (p Poller) now() time.Time {
	if p.Clock == nil {
		return clock.WallClock.Now()
	}
	return p.Clock.Now()
}

// Poll blocks until check is done. Exceeding the timeout returns *TimeoutError.
func (p Poller) Poll(ctx context.Context, resource string, check CheckFunc) error {
	clk := p.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	interval := p.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultConversionTimeout
	}

	deadline := clk.Now().Add(timeout)
	for attempt := 1; ; attempt++ {
		done, err := check(ctx, attempt)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		remaining := deadline.Sub(clk.Now())
		if remaining <= 0 {
			return &TimeoutError{Resource: resource, Timeout: timeout, Attempts: attempt}
		}
		wait := min(interval, remaining)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.After(wait):
		}
	}
}

package upgrade

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound means metadata could not be gathered: the instance does not
	// exist, is not managed by SSM, or a provider call failed.
	ErrNotFound = errors.New("instance metadata not found")
	// ErrIneligible means the instance does not match the conversion criteria.
	ErrIneligible = errors.New("instance does not meet the criteria")
	// ErrLifecycle means a stop or start request failed.
	ErrLifecycle = errors.New("instance lifecycle failure")
	// ErrConversion means the conversion could not be submitted or the task failed.
	ErrConversion = errors.New("license conversion failure")
	// ErrTimedOut means a bounded wait expired before a terminal state.
	ErrTimedOut = errors.New("timed out")
	// ErrProviderFault covers anything unexpected raised while processing an instance.
	ErrProviderFault = errors.New("unexpected provider fault")
)

// TimeoutError is returned when polling exceeds its deadline.
type TimeoutError struct {
	Resource string
	Timeout  time.Duration
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s polling %s (%d attempts)", e.Timeout, e.Resource, e.Attempts)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimedOut
}

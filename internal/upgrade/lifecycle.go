package upgrade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	awsec2 "tasnim.dev/pro-upgrade/internal/aws/ec2"
)

// LifecycleController stops and starts instances, blocking until the compute
// provider reports the terminal state or the timeout expires.
type LifecycleController struct {
	compute ComputeProvider
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewLifecycleController(compute ComputeProvider, timeout time.Duration, log logrus.FieldLogger) *LifecycleController {
	if timeout <= 0 {
		timeout = defaultLifecycleTimeout
	}
	return &LifecycleController{compute: compute, timeout: timeout, log: log}
}

// StopAndWait stops the instance. An already stopped instance succeeds.
func (l *LifecycleController) StopAndWait(ctx context.Context, instanceID string) error {
	l.log.WithField("instance", instanceID).Debug("stopping instance")
	if err := l.compute.StopAndWait(ctx, instanceID, l.timeout); err != nil {
		return l.fail("stop", instanceID, err)
	}
	return nil
}

// StartAndWait starts the instance and waits for it to be running.
func (l *LifecycleController) StartAndWait(ctx context.Context, instanceID string) error {
	l.log.WithField("instance", instanceID).Debug("starting instance")
	if err := l.compute.StartAndWait(ctx, instanceID, l.timeout); err != nil {
		return l.fail("start", instanceID, err)
	}
	return nil
}

func (l *LifecycleController) fail(op, instanceID string, err error) error {
	l.log.WithField("instance", instanceID).WithError(err).Errorf("%s failed", op)
	if errors.Is(err, awsec2.ErrWaitTimeout) {
		return fmt.Errorf("%w: %w: %s %s after %s: %w", ErrLifecycle, ErrTimedOut, op, instanceID, l.timeout, err)
	}
	return fmt.Errorf("%w: %s %s: %w", ErrLifecycle, op, instanceID, err)
}

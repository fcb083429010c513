package upgrade

import (
	"context"
	"fmt"

	lmtypes "github.com/aws/aws-sdk-go-v2/service/licensemanager/types"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"tasnim.dev/pro-upgrade/internal/utils"
)

// Converter submits Ubuntu Pro license conversions and follows them to completion.
type Converter struct {
	license  LicenseProvider
	cfg      Config
	poller   Poller
	log      logrus.FieldLogger
	observer Observer
}

func NewConverter(license LicenseProvider, cfg Config, clk clock.Clock, log logrus.FieldLogger) *Converter {
	cfg = cfg.withDefaults()
	return &Converter{
		license: license,
		cfg:     cfg,
		poller: Poller{
			Interval: cfg.PollInterval,
			Timeout:  cfg.ConversionTimeout,
			Clock:    clk,
		},
		log:      log,
		observer: nopObserver{},
	}
}

// ResourceARN returns the ARN the conversion is submitted for.
func (c *Converter) ResourceARN(instanceID string) string {
	return utils.InstanceARN(c.cfg.Partition, c.cfg.Region, c.cfg.AccountID, instanceID)
}

// Convert moves instanceID from RunInstances to RunInstances:0g00. Without
// wait it returns the submitted task as soon as License Manager accepts it.
// With wait it polls until the task succeeds (nil error), fails (ErrConversion)
// or the conversion timeout expires (ErrTimedOut).
func (c *Converter) Convert(ctx context.Context, instanceID string, wait bool) (*ConversionTask, error) {
	log := c.log.WithField("instance", instanceID)

	taskID, err := c.license.CreateConversionTask(ctx, c.ResourceARN(instanceID), UsageOperationLTS, UsageOperationPro)
	if err != nil {
		log.WithError(err).Error("submitting license conversion failed")
		return nil, fmt.Errorf("%w: %s: %w", ErrConversion, instanceID, err)
	}
	task := &ConversionTask{ID: taskID, Status: TaskPending}
	log = log.WithField("task", taskID)
	log.Info("license conversion submitted")
	c.observer.Observe(Event{
		Time:       c.poller.now(),
		InstanceID: instanceID,
		Stage:      StageConvert,
		Status:     StatusProgress,
		TaskID:     taskID,
		Message:    fmt.Sprintf("License conversion started with id: %s", taskID),
	})

	if !wait {
		return task, nil
	}

	err = c.poller.Poll(ctx, taskID, func(ctx context.Context, attempt int) (bool, error) {
		got, err := c.license.GetConversionTask(ctx, taskID)
		if err != nil {
			return false, err
		}
		task.Status = taskStatus(got.Status)
		task.StatusMessage = got.StatusMessage
		log.WithFields(logrus.Fields{"attempt": attempt, "status": got.Status}).Debug("polled conversion task")
		if !task.Status.Terminal() {
			c.observer.Observe(Event{
				Time:       c.poller.now(),
				InstanceID: instanceID,
				Stage:      StageConvert,
				Status:     StatusProgress,
				TaskID:     taskID,
				Message:    fmt.Sprintf("conversion %s is %s (check %d)", taskID, got.Status, attempt),
			})
		}
		return task.Status.Terminal(), nil
	})
	if err != nil {
		log.WithError(err).Error("waiting for license conversion failed")
		return task, fmt.Errorf("%w: %s: task %s: %w", ErrConversion, instanceID, taskID, err)
	}

	if task.Status == TaskFailed {
		log.WithField("reason", task.StatusMessage).Error("license conversion failed")
		return task, fmt.Errorf("%w: %s: task %s failed: %s", ErrConversion, instanceID, taskID, utils.OrDash(task.StatusMessage))
	}
	return task, nil
}

func taskStatus(s string) TaskStatus {
	switch lmtypes.LicenseConversionTaskStatus(s) {
	case lmtypes.LicenseConversionTaskStatusSucceeded:
		return TaskSucceeded
	case lmtypes.LicenseConversionTaskStatusFailed:
		return TaskFailed
	default:
		return TaskPending
	}
}

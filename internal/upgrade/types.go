// Package upgrade converts EC2 instances running Ubuntu LTS to Ubuntu Pro by
// stopping each instance, submitting a License Manager conversion task and
// starting the instance again.
package upgrade

import (
	"context"
	"errors"
	"time"

	awsec2 "tasnim.dev/pro-upgrade/internal/aws/ec2"
	awslm "tasnim.dev/pro-upgrade/internal/aws/licensemanager"
	awsssm "tasnim.dev/pro-upgrade/internal/aws/ssm"
)

const (
	defaultPollInterval      = 5 * time.Second
	defaultLifecycleTimeout  = 10 * time.Minute
	defaultConversionTimeout = 60 * time.Minute
)

// ComputeProvider controls instance lifecycle and reports billing attributes.
type ComputeProvider interface {
	DescribeInstance(ctx context.Context, instanceID string) (awsec2.BillingInfo, error)
	StopAndWait(ctx context.Context, instanceID string, maxWait time.Duration) error
	StartAndWait(ctx context.Context, instanceID string, maxWait time.Duration) error
}

// InventoryProvider reports what the instance agent discovered about the OS.
type InventoryProvider interface {
	ManagedInstance(ctx context.Context, instanceID string) (awsssm.ManagedInstance, error)
}

// LicenseProvider creates and tracks license conversion tasks.
type LicenseProvider interface {
	CreateConversionTask(ctx context.Context, resourceARN, sourceOp, destOp string) (string, error)
	GetConversionTask(ctx context.Context, taskID string) (awslm.ConversionTask, error)
}

// Providers is the set of remote capabilities the upgrader needs.
type Providers struct {
	Compute   ComputeProvider
	Inventory InventoryProvider
	License   LicenseProvider
}

func (p Providers) validate() error {
	if p.Compute == nil || p.Inventory == nil || p.License == nil {
		return errors.New("compute, inventory and license providers are all required")
	}
	return nil
}

// Config replaces the region/account globals used to build resource ARNs and
// bounds every wait.
type Config struct {
	// Partition defaults to the partition of Region.
	Partition string
	Region    string
	AccountID string

	PollInterval      time.Duration
	LifecycleTimeout  time.Duration
	ConversionTimeout time.Duration

	// Concurrency > 1 processes that many instances at once.
	Concurrency int
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.LifecycleTimeout <= 0 {
		c.LifecycleTimeout = defaultLifecycleTimeout
	}
	if c.ConversionTimeout <= 0 {
		c.ConversionTimeout = defaultConversionTimeout
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	return c
}

func (c Config) validate() error {
	if c.Region == "" {
		return errors.New("region is required")
	}
	if c.AccountID == "" {
		return errors.New("account id is required")
	}
	return nil
}

// InstanceMetadata merges what EC2 and SSM know about one instance.
type InstanceMetadata struct {
	ID              string
	PlatformDetails string
	UsageOperation  string
	PlatformName    string
	PlatformVersion string

	State      string
	PingStatus string
}

// TaskStatus is the lifecycle of a conversion task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "PENDING"
	TaskSucceeded TaskStatus = "SUCCEEDED"
	TaskFailed    TaskStatus = "FAILED"
)

// Terminal reports whether no further transition can happen.
func (s TaskStatus) Terminal() bool {
	return s == TaskSucceeded || s == TaskFailed
}

// ConversionTask is a submitted license conversion.
type ConversionTask struct {
	ID            string
	Status        TaskStatus
	StatusMessage string
}

// Outcome is how processing of one instance ended.
type Outcome string

const (
	OutcomeConverted Outcome = "converted"
	// OutcomeSubmitted means the conversion was submitted without waiting and
	// the instance was left stopped.
	OutcomeSubmitted Outcome = "submitted"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Result records what happened to one instance.
type Result struct {
	InstanceID string
	Outcome    Outcome
	// Stage is the last stage reached.
	Stage    Stage
	TaskID   string
	Metadata *InstanceMetadata
	Err      error
	Elapsed  time.Duration
}

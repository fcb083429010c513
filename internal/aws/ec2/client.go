package ec2

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
)

// ErrInstanceNotFound is returned when EC2 has no record of the requested instance.
var ErrInstanceNotFound = errors.New("instance not found")

// ErrWaitTimeout is returned when an instance does not reach the desired state in time.
var ErrWaitTimeout = errors.New("exceeded max wait time")

type EC2API interface {
	DescribeInstances(ctx context.Context, params *awsec2.DescribeInstancesInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeInstancesOutput, error)
	StopInstances(ctx context.Context, params *awsec2.StopInstancesInput, optFns ...func(*awsec2.Options)) (*awsec2.StopInstancesOutput, error)
	StartInstances(ctx context.Context, params *awsec2.StartInstancesInput, optFns ...func(*awsec2.Options)) (*awsec2.StartInstancesOutput, error)
}

type Client struct {
	api EC2API

	// waiterMinDelay/waiterMaxDelay override the SDK waiter backoff; zero keeps the SDK defaults.
	waiterMinDelay time.Duration
	waiterMaxDelay time.Duration
}

func NewClient(api EC2API) *Client {
	return &Client{api: api}
}

// WithWaiterDelay sets the backoff bounds used while waiting on instance state.
func (c *Client) WithWaiterDelay(minDelay, maxDelay time.Duration) *Client {
	c.waiterMinDelay = minDelay
	c.waiterMaxDelay = maxDelay
	return c
}

// DescribeInstance returns the billing attributes of a single instance.
func (c *Client) DescribeInstance(ctx context.Context, instanceID string) (BillingInfo, error) {
	out, err := c.api.DescribeInstances(ctx, &awsec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		if isNotFound(err) {
			return BillingInfo{}, fmt.Errorf("DescribeInstances %s: %w", instanceID, ErrInstanceNotFound)
		}
		return BillingInfo{}, fmt.Errorf("DescribeInstances: %w", err)
	}

	if len(out.Reservations) == 0 || len(out.Reservations[0].Instances) == 0 {
		return BillingInfo{}, fmt.Errorf("DescribeInstances %s: %w", instanceID, ErrInstanceNotFound)
	}

	inst := out.Reservations[0].Instances[0]
	info := BillingInfo{
		InstanceID:      aws.ToString(inst.InstanceId),
		PlatformDetails: valueOrNA(inst.PlatformDetails),
		UsageOperation:  valueOrNA(inst.UsageOperation),
	}
	if inst.State != nil {
		info.State = string(inst.State.Name)
	}
	return info, nil
}

// ListInstances returns every instance in one of the given states. No states means all.
func (c *Client) ListInstances(ctx context.Context, states ...types.InstanceStateName) ([]EC2Instance, error) {
	var instances []EC2Instance
	var nextToken *string

	input := &awsec2.DescribeInstancesInput{}
	if len(states) > 0 {
		values := make([]string, 0, len(states))
		for _, s := range states {
			values = append(values, string(s))
		}
		input.Filters = []types.Filter{{
			Name:   aws.String("instance-state-name"),
			Values: values,
		}}
	}

	for {
		input.NextToken = nextToken
		out, err := c.api.DescribeInstances(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("DescribeInstances: %w", err)
		}

		for _, reservation := range out.Reservations {
			for _, inst := range reservation.Instances {
				name := ""
				for _, tag := range inst.Tags {
					if aws.ToString(tag.Key) == "Name" {
						name = aws.ToString(tag.Value)
						break
					}
				}

				state := ""
				if inst.State != nil {
					state = string(inst.State.Name)
				}
				instances = append(instances, EC2Instance{
					Name:            name,
					InstanceID:      aws.ToString(inst.InstanceId),
					Type:            string(inst.InstanceType),
					State:           state,
					PlatformDetails: valueOrNA(inst.PlatformDetails),
					UsageOperation:  valueOrNA(inst.UsageOperation),
				})
			}
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	return instances, nil
}

// StopAndWait stops the instance and blocks until EC2 reports it stopped or maxWait elapses.
// Stopping an instance that is already stopped succeeds.
func (c *Client) StopAndWait(ctx context.Context, instanceID string, maxWait time.Duration) error {
	if _, err := c.api.StopInstances(ctx, &awsec2.StopInstancesInput{
		InstanceIds: []string{instanceID},
	}); err != nil {
		return fmt.Errorf("StopInstances: %w", err)
	}

	waiter := awsec2.NewInstanceStoppedWaiter(c.api, func(o *awsec2.InstanceStoppedWaiterOptions) {
		c.applyDelay(&o.MinDelay, &o.MaxDelay)
	})
	if err := waiter.Wait(ctx, &awsec2.DescribeInstancesInput{InstanceIds: []string{instanceID}}, maxWait); err != nil {
		return fmt.Errorf("waiting for %s to stop: %w", instanceID, waitError(err))
	}
	return nil
}

// StartAndWait starts the instance and blocks until EC2 reports it running or maxWait elapses.
func (c *Client) StartAndWait(ctx context.Context, instanceID string, maxWait time.Duration) error {
	if _, err := c.api.StartInstances(ctx, &awsec2.StartInstancesInput{
		InstanceIds: []string{instanceID},
	}); err != nil {
		return fmt.Errorf("StartInstances: %w", err)
	}

	waiter := awsec2.NewInstanceRunningWaiter(c.api, func(o *awsec2.InstanceRunningWaiterOptions) {
		c.applyDelay(&o.MinDelay, &o.MaxDelay)
	})
	if err := waiter.Wait(ctx, &awsec2.DescribeInstancesInput{InstanceIds: []string{instanceID}}, maxWait); err != nil {
		return fmt.Errorf("waiting for %s to start: %w", instanceID, waitError(err))
	}
	return nil
}

func (c *Client) applyDelay(minDelay, maxDelay *time.Duration) {
	if c.waiterMinDelay > 0 {
		*minDelay = c.waiterMinDelay
	}
	if c.waiterMaxDelay > 0 {
		*maxDelay = c.waiterMaxDelay
	}
}

// waitError tags waiter deadline failures with ErrWaitTimeout. The SDK waiters
// report them either as a context deadline or as an untyped "exceeded max wait
// time" error.
func waitError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), ErrWaitTimeout.Error()) {
		return fmt.Errorf("%w: %w", ErrWaitTimeout, err)
	}
	return err
}

func isNotFound(err error) bool {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "InvalidInstanceID.NotFound", "InvalidInstanceID.Malformed":
			return true
		}
	}
	return false
}

func valueOrNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

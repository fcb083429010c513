package upgrade

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	awsec2 "tasnim.dev/pro-upgrade/internal/aws/ec2"
	awsssm "tasnim.dev/pro-upgrade/internal/aws/ssm"
)

// MetadataFetcher gathers one instance's platform and billing attributes from
// the compute and inventory providers. Results are never cached.
type MetadataFetcher struct {
	compute   ComputeProvider
	inventory InventoryProvider
	log       logrus.FieldLogger
}

func NewMetadataFetcher(compute ComputeProvider, inventory InventoryProvider, log logrus.FieldLogger) *MetadataFetcher {
	return &MetadataFetcher{compute: compute, inventory: inventory, log: log}
}

// Fetch returns the merged metadata of instanceID. Every provider failure is
// logged and reported as ErrNotFound.
func (f *MetadataFetcher) Fetch(ctx context.Context, instanceID string) (*InstanceMetadata, error) {
	log := f.log.WithField("instance", instanceID)

	billing, err := f.compute.DescribeInstance(ctx, instanceID)
	if err != nil {
		log.WithError(err).Warn("describing instance failed")
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, instanceID, err)
	}

	managed, err := f.inventory.ManagedInstance(ctx, instanceID)
	if err != nil {
		log.WithError(err).Warn("instance inventory unavailable: is the instance online and managed by SSM?")
		return nil, fmt.Errorf("%w: %s: is the instance online and managed by SSM? %w", ErrNotFound, instanceID, err)
	}

	md := NewInstanceMetadata(instanceID, billing, managed)
	log.WithFields(logrus.Fields{
		"platform":        md.PlatformName,
		"version":         md.PlatformVersion,
		"usage_operation": md.UsageOperation,
	}).Debug("fetched instance metadata")
	return md, nil
}

// NewInstanceMetadata merges what EC2 and SSM report about one instance.
func NewInstanceMetadata(instanceID string, billing awsec2.BillingInfo, managed awsssm.ManagedInstance) *InstanceMetadata {
	return &InstanceMetadata{
		ID:              instanceID,
		PlatformDetails: billing.PlatformDetails,
		UsageOperation:  billing.UsageOperation,
		PlatformName:    managed.PlatformName,
		PlatformVersion: managed.PlatformVersion,
		State:           billing.State,
		PingStatus:      managed.PingStatus,
	}
}

package ssm

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// ErrNotManaged is returned when the instance is not registered with Systems Manager.
var ErrNotManaged = errors.New("instance is not managed by SSM")

type SSMAPI interface {
	DescribeInstanceInformation(ctx context.Context, params *awsssm.DescribeInstanceInformationInput, optFns ...func(*awsssm.Options)) (*awsssm.DescribeInstanceInformationOutput, error)
}

type Client struct {
	api SSMAPI
}

func NewClient(api SSMAPI) *Client {
	return &Client{api: api}
}

// ManagedInstance returns the inventory record for a single instance.
func (c *Client) ManagedInstance(ctx context.Context, instanceID string) (ManagedInstance, error) {
	out, err := c.api.DescribeInstanceInformation(ctx, &awsssm.DescribeInstanceInformationInput{
		InstanceInformationFilterList: []types.InstanceInformationFilter{{
			Key:      types.InstanceInformationFilterKeyInstanceIds,
			ValueSet: []string{instanceID},
		}},
	})
	if err != nil {
		return ManagedInstance{}, fmt.Errorf("DescribeInstanceInformation: %w", err)
	}
	if len(out.InstanceInformationList) == 0 {
		return ManagedInstance{}, fmt.Errorf("%s: %w", instanceID, ErrNotManaged)
	}
	return toManagedInstance(out.InstanceInformationList[0]), nil
}

// ListManagedInstances returns every instance registered with SSM, keyed by instance ID.
func (c *Client) ListManagedInstances(ctx context.Context) (map[string]ManagedInstance, error) {
	result := make(map[string]ManagedInstance)
	var nextToken *string

	for {
		out, err := c.api.DescribeInstanceInformation(ctx, &awsssm.DescribeInstanceInformationInput{
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeInstanceInformation: %w", err)
		}

		for _, info := range out.InstanceInformationList {
			mi := toManagedInstance(info)
			result[mi.InstanceID] = mi
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	return result, nil
}

func toManagedInstance(info types.InstanceInformation) ManagedInstance {
	return ManagedInstance{
		InstanceID:      aws.ToString(info.InstanceId),
		PlatformName:    aws.ToString(info.PlatformName),
		PlatformVersion: aws.ToString(info.PlatformVersion),
		PlatformType:    string(info.PlatformType),
		PingStatus:      string(info.PingStatus),
		AgentVersion:    aws.ToString(info.AgentVersion),
	}
}

package ssm

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSSMAPI struct {
	describeInstanceInformationFunc func(ctx context.Context, params *awsssm.DescribeInstanceInformationInput, optFns ...func(*awsssm.Options)) (*awsssm.DescribeInstanceInformationOutput, error)
}

func (m *mockSSMAPI) DescribeInstanceInformation(ctx context.Context, params *awsssm.DescribeInstanceInformationInput, optFns ...func(*awsssm.Options)) (*awsssm.DescribeInstanceInformationOutput, error) {
	return m.describeInstanceInformationFunc(ctx, params, optFns...)
}

func TestManagedInstance(t *testing.T) {
	mock := &mockSSMAPI{
		describeInstanceInformationFunc: func(ctx context.Context, params *awsssm.DescribeInstanceInformationInput, optFns ...func(*awsssm.Options)) (*awsssm.DescribeInstanceInformationOutput, error) {
			require.Len(t, params.InstanceInformationFilterList, 1)
			filter := params.InstanceInformationFilterList[0]
			assert.Equal(t, types.InstanceInformationFilterKeyInstanceIds, filter.Key)
			assert.Equal(t, []string{"i-abc"}, filter.ValueSet)
			return &awsssm.DescribeInstanceInformationOutput{
				InstanceInformationList: []types.InstanceInformation{{
					InstanceId:      awssdk.String("i-abc"),
					PlatformName:    awssdk.String("Ubuntu"),
					PlatformVersion: awssdk.String("18.04"),
					PlatformType:    types.PlatformTypeLinux,
					PingStatus:      types.PingStatusOnline,
					AgentVersion:    awssdk.String("3.3.40.0"),
				}},
			}, nil
		},
	}

	mi, err := NewClient(mock).ManagedInstance(context.Background(), "i-abc")
	require.NoError(t, err)
	assert.Equal(t, "i-abc", mi.InstanceID)
	assert.Equal(t, "Ubuntu", mi.PlatformName)
	assert.Equal(t, "18.04", mi.PlatformVersion)
	assert.Equal(t, "Linux", mi.PlatformType)
	assert.Equal(t, "Online", mi.PingStatus)
	assert.Equal(t, "3.3.40.0", mi.AgentVersion)
}

func TestManagedInstance_NotManaged(t *testing.T) {
	mock := &mockSSMAPI{
		describeInstanceInformationFunc: func(ctx context.Context, params *awsssm.DescribeInstanceInformationInput, optFns ...func(*awsssm.Options)) (*awsssm.DescribeInstanceInformationOutput, error) {
			return &awsssm.DescribeInstanceInformationOutput{}, nil
		},
	}

	_, err := NewClient(mock).ManagedInstance(context.Background(), "i-unmanaged")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotManaged)
	assert.Contains(t, err.Error(), "i-unmanaged")
}

func TestManagedInstance_APIError(t *testing.T) {
	mock := &mockSSMAPI{
		describeInstanceInformationFunc: func(ctx context.Context, params *awsssm.DescribeInstanceInformationInput, optFns ...func(*awsssm.Options)) (*awsssm.DescribeInstanceInformationOutput, error) {
			return nil, errors.New("throttled")
		},
	}

	_, err := NewClient(mock).ManagedInstance(context.Background(), "i-abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotManaged)
	assert.Contains(t, err.Error(), "DescribeInstanceInformation")
}

func TestListManagedInstances_Pagination(t *testing.T) {
	callCount := 0
	mock := &mockSSMAPI{
		describeInstanceInformationFunc: func(ctx context.Context, params *awsssm.DescribeInstanceInformationInput, optFns ...func(*awsssm.Options)) (*awsssm.DescribeInstanceInformationOutput, error) {
			callCount++
			assert.Empty(t, params.InstanceInformationFilterList)
			if callCount == 1 {
				return &awsssm.DescribeInstanceInformationOutput{
					InstanceInformationList: []types.InstanceInformation{{
						InstanceId: awssdk.String("i-1"), PlatformName: awssdk.String("Ubuntu"), PlatformVersion: awssdk.String("20.04"),
					}},
					NextToken: awssdk.String("next"),
				}, nil
			}
			assert.Equal(t, "next", awssdk.ToString(params.NextToken))
			return &awsssm.DescribeInstanceInformationOutput{
				InstanceInformationList: []types.InstanceInformation{{
					InstanceId: awssdk.String("i-2"), PlatformName: awssdk.String("Microsoft Windows Server 2019 Datacenter"),
				}},
			}, nil
		},
	}

	instances, err := NewClient(mock).ListManagedInstances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, callCount)
	require.Len(t, instances, 2)
	assert.Equal(t, "20.04", instances["i-1"].PlatformVersion)
	assert.Equal(t, "Microsoft Windows Server 2019 Datacenter", instances["i-2"].PlatformName)
}

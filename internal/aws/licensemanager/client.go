package licensemanager

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awslm "github.com/aws/aws-sdk-go-v2/service/licensemanager"
	"github.com/aws/aws-sdk-go-v2/service/licensemanager/types"
)

type LicenseManagerAPI interface {
	CreateLicenseConversionTaskForResource(ctx context.Context, params *awslm.CreateLicenseConversionTaskForResourceInput, optFns ...func(*awslm.Options)) (*awslm.CreateLicenseConversionTaskForResourceOutput, error)
	GetLicenseConversionTask(ctx context.Context, params *awslm.GetLicenseConversionTaskInput, optFns ...func(*awslm.Options)) (*awslm.GetLicenseConversionTaskOutput, error)
}

type Client struct {
	api LicenseManagerAPI
}

func NewClient(api LicenseManagerAPI) *Client {
	return &Client{api: api}
}

// CreateConversionTask asks License Manager to move resourceARN from the source
// usage operation to the destination one and returns the new task ID.
func (c *Client) CreateConversionTask(ctx context.Context, resourceARN, sourceOp, destOp string) (string, error) {
	out, err := c.api.CreateLicenseConversionTaskForResource(ctx, &awslm.CreateLicenseConversionTaskForResourceInput{
		ResourceArn:               aws.String(resourceARN),
		SourceLicenseContext:      &types.LicenseConversionContext{UsageOperation: aws.String(sourceOp)},
		DestinationLicenseContext: &types.LicenseConversionContext{UsageOperation: aws.String(destOp)},
	})
	if err != nil {
		return "", fmt.Errorf("CreateLicenseConversionTaskForResource: %w", err)
	}
	taskID := aws.ToString(out.LicenseConversionTaskId)
	if taskID == "" {
		return "", fmt.Errorf("CreateLicenseConversionTaskForResource: empty task id for %s", resourceARN)
	}
	return taskID, nil
}

// GetConversionTask returns the current state of a conversion task.
func (c *Client) GetConversionTask(ctx context.Context, taskID string) (ConversionTask, error) {
	out, err := c.api.GetLicenseConversionTask(ctx, &awslm.GetLicenseConversionTaskInput{
		LicenseConversionTaskId: aws.String(taskID),
	})
	if err != nil {
		return ConversionTask{}, fmt.Errorf("GetLicenseConversionTask: %w", err)
	}

	return ConversionTask{
		TaskID:        taskID,
		ResourceARN:   aws.ToString(out.ResourceArn),
		Status:        string(out.Status),
		StatusMessage: aws.ToString(out.StatusMessage),
		StartTime:     aws.ToTime(out.StartTime),
		EndTime:       aws.ToTime(out.EndTime),
	}, nil
}

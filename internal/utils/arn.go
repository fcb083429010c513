package utils

import (
	"fmt"
	"strings"
)

// Partition returns the AWS partition that owns the given region.
func Partition(region string) string {
	switch {
	case strings.HasPrefix(region, "cn-"):
		return "aws-cn"
	case strings.HasPrefix(region, "us-gov-"):
		return "aws-us-gov"
	case strings.HasPrefix(region, "us-iso-"):
		return "aws-iso"
	case strings.HasPrefix(region, "us-isob-"):
		return "aws-iso-b"
	default:
		return "aws"
	}
}

// InstanceARN builds the ARN of an EC2 instance. An empty partition is derived from region.
func InstanceARN(partition, region, accountID, instanceID string) string {
	if partition == "" {
		partition = Partition(region)
	}
	return fmt.Sprintf("arn:%s:ec2:%s:%s:instance/%s", partition, region, accountID, instanceID)
}

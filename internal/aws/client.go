package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/licensemanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	awsec2 "tasnim.dev/pro-upgrade/internal/aws/ec2"
	awslm "tasnim.dev/pro-upgrade/internal/aws/licensemanager"
	awsssm "tasnim.dev/pro-upgrade/internal/aws/ssm"
)

// ServiceClient bundles the clients the upgrader talks to, all bound to one region.
type ServiceClient struct {
	EC2     *awsec2.Client
	SSM     *awsssm.Client
	License *awslm.Client

	Region    string
	AccountID string
}

// NewServiceClient loads the AWS config and builds every client. When accountID
// is empty it is resolved from STS.
func NewServiceClient(ctx context.Context, profile, region, accountID string) (*ServiceClient, error) {
	cfg, err := LoadConfig(ctx, profile, region)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("no AWS region configured: pass --region or set default_region")
	}

	if accountID == "" {
		accountID, err = GetAccountID(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("resolving AWS account id (pass --account or set account_id to skip): %w", err)
		}
	}

	return &ServiceClient{
		EC2:       awsec2.NewClient(ec2.NewFromConfig(cfg)),
		SSM:       awsssm.NewClient(ssm.NewFromConfig(cfg)),
		License:   awslm.NewClient(licensemanager.NewFromConfig(cfg)),
		Region:    cfg.Region,
		AccountID: accountID,
	}, nil
}

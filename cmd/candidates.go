package cmd

import (
	"context"
	"fmt"
	"sort"

	"charm.land/lipgloss/v2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/spf13/cobra"

	awsclient "tasnim.dev/pro-upgrade/internal/aws"
	awsec2 "tasnim.dev/pro-upgrade/internal/aws/ec2"
	awsssm "tasnim.dev/pro-upgrade/internal/aws/ssm"
	"tasnim.dev/pro-upgrade/internal/config"
	"tasnim.dev/pro-upgrade/internal/tui"
	"tasnim.dev/pro-upgrade/internal/upgrade"
)

func NewCandidatesCmd() *cobra.Command {
	var profile string
	var region string
	var version string

	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "List running instances and whether they can be converted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			profile, region = cfg.Merge(profile, region)

			ctx := cmd.Context()
			client, err := awsclient.NewServiceClient(ctx, profile, region, cfg.AccountID)
			if err != nil {
				return fmt.Errorf("initializing AWS client: %w", err)
			}

			cands, err := listCandidates(ctx, client, upgrade.Criteria{Version: version})
			if err != nil {
				return err
			}
			if len(cands) == 0 {
				lipgloss.Fprintln(cmd.OutOrStdout(), "No running instances in "+client.Region)
				return nil
			}
			lipgloss.Fprintln(cmd.OutOrStdout(), tui.RenderCandidates(cands))
			lipgloss.Fprintln(cmd.OutOrStdout(), tui.CandidateSummary(cands))
			return nil
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", "", "AWS profile to use")
	cmd.Flags().StringVarP(&region, "region", "r", "", "AWS region to use")
	cmd.Flags().StringVar(&version, "version", "", "only count this Ubuntu version as eligible, e.g. 18.04")

	return cmd
}

func listCandidates(ctx context.Context, client *awsclient.ServiceClient, crit upgrade.Criteria) ([]tui.Candidate, error) {
	instances, err := client.EC2.ListInstances(ctx, types.InstanceStateNameRunning)
	if err != nil {
		return nil, fmt.Errorf("listing running instances: %w", err)
	}
	managed, err := client.SSM.ListManagedInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing managed instances: %w", err)
	}
	return buildCandidates(instances, managed, crit), nil
}

// buildCandidates joins EC2 and SSM views of the fleet, sorted by instance id.
func buildCandidates(instances []awsec2.EC2Instance, managed map[string]awsssm.ManagedInstance, crit upgrade.Criteria) []tui.Candidate {
	cands := make([]tui.Candidate, 0, len(instances))
	for _, inst := range instances {
		c := tui.Candidate{InstanceID: inst.InstanceID, Name: inst.Name, Type: inst.Type}
		mi, ok := managed[inst.InstanceID]
		if !ok {
			c.Reasons = []string{"not managed by SSM"}
			cands = append(cands, c)
			continue
		}
		billing := awsec2.BillingInfo{
			InstanceID:      inst.InstanceID,
			State:           inst.State,
			PlatformDetails: inst.PlatformDetails,
			UsageOperation:  inst.UsageOperation,
		}
		c.Metadata = upgrade.NewInstanceMetadata(inst.InstanceID, billing, mi)
		c.Reasons = crit.Reasons(c.Metadata)
		cands = append(cands, c)
	}
	sort.Slice(cands, func(i, j int) bool {
		return cands[i].InstanceID < cands[j].InstanceID
	})
	return cands
}

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	awsec2 "tasnim.dev/pro-upgrade/internal/aws/ec2"
	awsssm "tasnim.dev/pro-upgrade/internal/aws/ssm"
	"tasnim.dev/pro-upgrade/internal/upgrade"
)

func TestBuildCandidates(t *testing.T) {
	instances := []awsec2.EC2Instance{
		{InstanceID: "i-3", Name: "win", State: "running", UsageOperation: "RunInstances:0002"},
		{InstanceID: "i-1", Name: "web", State: "running", UsageOperation: "RunInstances"},
		{InstanceID: "i-2", Name: "orphan", State: "running", UsageOperation: "RunInstances"},
		{InstanceID: "i-4", Name: "pro", State: "running", UsageOperation: "RunInstances:0g00"},
	}
	managed := map[string]awsssm.ManagedInstance{
		"i-1": {InstanceID: "i-1", PlatformName: "Ubuntu", PlatformVersion: "18.04", PingStatus: "Online"},
		"i-3": {InstanceID: "i-3", PlatformName: "Microsoft Windows Server 2019 Datacenter", PlatformVersion: "10.0.17763"},
		"i-4": {InstanceID: "i-4", PlatformName: "Ubuntu", PlatformVersion: "22.04"},
	}

	cands := buildCandidates(instances, managed, upgrade.Criteria{})
	require.Len(t, cands, 4)

	ids := []string{cands[0].InstanceID, cands[1].InstanceID, cands[2].InstanceID, cands[3].InstanceID}
	assert.Equal(t, []string{"i-1", "i-2", "i-3", "i-4"}, ids)

	assert.True(t, cands[0].Eligible())
	assert.Equal(t, "web", cands[0].Name)
	assert.Equal(t, "18.04", cands[0].Metadata.PlatformVersion)

	assert.False(t, cands[1].Eligible())
	assert.Nil(t, cands[1].Metadata)
	assert.Equal(t, []string{"not managed by SSM"}, cands[1].Reasons)

	assert.False(t, cands[2].Eligible())
	assert.Len(t, cands[2].Reasons, 2)

	assert.Equal(t, []string{"already Ubuntu Pro"}, cands[3].Reasons)
}

func TestBuildCandidates_VersionFilter(t *testing.T) {
	instances := []awsec2.EC2Instance{{InstanceID: "i-1", UsageOperation: "RunInstances"}}
	managed := map[string]awsssm.ManagedInstance{"i-1": {PlatformName: "Ubuntu", PlatformVersion: "20.04"}}

	cands := buildCandidates(instances, managed, upgrade.Criteria{Version: "18.04"})
	require.Len(t, cands, 1)
	assert.False(t, cands[0].Eligible())
	assert.Contains(t, cands[0].Reasons[0], "18.04")
}

package ssm

// ManagedInstance is the inventory view SSM keeps for a registered instance.
type ManagedInstance struct {
	InstanceID      string
	PlatformName    string
	PlatformVersion string
	PlatformType    string
	PingStatus      string
	AgentVersion    string
}

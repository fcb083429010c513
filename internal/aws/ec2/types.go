package ec2

// EC2Instance represents a single EC2 instance.
type EC2Instance struct {
	Name            string
	InstanceID      string
	Type            string
	State           string
	PlatformDetails string
	UsageOperation  string
}

// BillingInfo holds the licensing attributes EC2 reports for an instance.
type BillingInfo struct {
	InstanceID      string
	State           string
	PlatformDetails string
	UsageOperation  string
}

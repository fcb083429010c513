package upgrade

import "fmt"

const (
	PlatformUbuntu = "Ubuntu"
	// UsageOperationLTS is the billing code of a standard Linux instance.
	UsageOperationLTS = "RunInstances"
	// UsageOperationPro is the billing code of an Ubuntu Pro instance.
	UsageOperationPro = "RunInstances:0g00"
)

// Criteria selects the instances to convert. An empty Version matches any version.
type Criteria struct {
	Version string
}

// Eligible reports whether md qualifies for conversion.
func (c Criteria) Eligible(md *InstanceMetadata) bool {
	return md != nil && len(c.Reasons(md)) == 0
}

// Reasons lists every clause md fails, in check order.
func (c Criteria) Reasons(md *InstanceMetadata) []string {
	if md == nil {
		return []string{"no metadata"}
	}

	var reasons []string
	if md.PlatformName != PlatformUbuntu {
		reasons = append(reasons, fmt.Sprintf("platform is %q, not %q", md.PlatformName, PlatformUbuntu))
	}
	if c.Version != "" && md.PlatformVersion != c.Version {
		reasons = append(reasons, fmt.Sprintf("version is %q, not %q", md.PlatformVersion, c.Version))
	}
	if md.UsageOperation != UsageOperationLTS {
		if md.UsageOperation == UsageOperationPro {
			reasons = append(reasons, "already Ubuntu Pro")
		} else {
			reasons = append(reasons, fmt.Sprintf("usage operation is %q, not %q", md.UsageOperation, UsageOperationLTS))
		}
	}
	return reasons
}

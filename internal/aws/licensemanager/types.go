package licensemanager

import "time"

// ConversionTask is a License Manager license-type conversion task.
type ConversionTask struct {
	TaskID        string
	ResourceARN   string
	Status        string
	StatusMessage string
	StartTime     time.Time
	EndTime       time.Time
}

package utils

import (
	"fmt"
	"time"
)

// Elapsed renders a duration rounded to whole seconds, e.g. "2m05s" or "48s".
func Elapsed(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}

// OrDash returns s, or "—" if s is empty.
func OrDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

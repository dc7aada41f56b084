package utils

import (
	"fmt"
	"time"
)

// FormatCoarseDuration renders d using only its coarsest nonzero unit
// ("3 days", "1 hour", "12 minutes"). Durations under a minute count as one minute.
func FormatCoarseDuration(d time.Duration) string {
	minutes := int(d / time.Minute)
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return pluralize(days, "day")
	case hours > 0:
		return pluralize(hours, "hour")
	default:
		return pluralize(max(minutes, 1), "minute")
	}
}

// FormatClock renders d as zero-padded minutes:seconds. Negative durations clamp to zero.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// Package timeutil provides time formatting utilities for CLI output.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// LocalTimeFormat is the format used for displaying local times in CLI
// output. Uses Go's reference time: Mon Jan 2 15:04:05 2006.
const LocalTimeFormat = "Mon Jan 2 15:04:05 2006"

// FormatDuration renders a duration as "3d 2h 5m 12s", omitting leading
// zero units.
func FormatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd ", days)
	}
	if days > 0 || hours > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
	}
	if days > 0 || hours > 0 || minutes > 0 {
		fmt.Fprintf(&b, "%dm ", minutes)
	}
	fmt.Fprintf(&b, "%ds", seconds)
	return b.String()
}

// FormatUptime converts a Go duration string (e.g. "72h30m15s", as the
// admin API reports uptime) to a human-readable form. Returns the input
// unchanged if it does not parse.
func FormatUptime(uptime string) string {
	d, err := time.ParseDuration(uptime)
	if err != nil {
		return uptime
	}
	return FormatDuration(d)
}

// FormatTime parses an RFC3339 timestamp and returns a local time string.
// Returns the original string if parsing fails.
func FormatTime(timestamp string) string {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return timestamp
	}
	return t.Local().Format(LocalTimeFormat)
}

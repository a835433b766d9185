package util

import (
	"fmt"
	"strings"
	"time"
)

// ParseLegDuration parses a flight duration of the form "02h 35m".
func ParseLegDuration(value string) (time.Duration, error) {
	var hours, minutes int

	_, err := fmt.Sscanf(strings.TrimSpace(value), "%dh %dm", &hours, &minutes)
	if err != nil {
		return 0, fmt.Errorf("invalid leg duration %q: %w", value, err)
	}

	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
}

func FormatLegDuration(duration time.Duration) string {
	duration = duration.Round(time.Minute)
	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60

	return fmt.Sprintf("%02dh %02dm", hours, minutes)
}

// SumLegDurations adds up a set of "02h 35m" durations into one of the
// same form. Unparseable entries are skipped.
func SumLegDurations(values []string) string {
	var total time.Duration

	for _, value := range values {
		duration, err := ParseLegDuration(value)
		if err != nil {
			continue
		}

		total += duration
	}

	return FormatLegDuration(total)
}

// FormatApproximateDuration renders a duration as a short human string,
// eg "1h 25m" or "45s", for log lines and estimates.
func FormatApproximateDuration(duration time.Duration) string {
	duration = duration.Round(time.Second)

	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60
	seconds := int(duration.Seconds()) % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

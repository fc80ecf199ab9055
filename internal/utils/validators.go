package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses a duration string with support for common units
func ParseDuration(durationStr string) (time.Duration, error) {
	// Handle common duration formats
	durationStr = strings.ToLower(strings.TrimSpace(durationStr))

	// If it's just a number, assume hours
	if val, err := strconv.Atoi(durationStr); err == nil {
		return time.Duration(val) * time.Hour, nil
	}

	// Try parsing as standard Go duration
	duration, err := time.ParseDuration(durationStr)
	if err == nil {
		return duration, nil
	}

	// Handle custom formats like "2 hours", "30 minutes", etc.
	parts := strings.Fields(durationStr)
	if len(parts) == 2 {
		val, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("invalid duration value: %s", parts[0])
		}

		unit := parts[1]
		switch {
		case strings.HasPrefix(unit, "second"):
			return time.Duration(val) * time.Second, nil
		case strings.HasPrefix(unit, "minute"):
			return time.Duration(val) * time.Minute, nil
		case strings.HasPrefix(unit, "hour"):
			return time.Duration(val) * time.Hour, nil
		case strings.HasPrefix(unit, "day"):
			return time.Duration(val) * 24 * time.Hour, nil
		default:
			return 0, fmt.Errorf("unknown duration unit: %s", unit)
		}
	}

	return 0, fmt.Errorf("invalid duration format: %s", durationStr)
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if hours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd%dh", days, hours)
}

var (
	resourceNamePattern = regexp.MustCompile(`^[a-z]([-a-z0-9]{0,61}[a-z0-9])?$`)
	zonePattern         = regexp.MustCompile(`^[a-z]+-[a-z]+[0-9]+-[a-z]$`)
)

// ValidateResourceName checks a name against the GCE resource naming rules
func ValidateResourceName(name string) error {
	if name == "" {
		return fmt.Errorf("resource name cannot be empty")
	}
	if !resourceNamePattern.MatchString(name) {
		return fmt.Errorf("invalid resource name %q: must be 1-63 lowercase letters, digits or dashes, start with a letter and not end with a dash", name)
	}
	return nil
}

// ValidateZone checks if the zone format is valid (e.g., us-central1-a)
func ValidateZone(zone string) error {
	if zone == "" {
		return fmt.Errorf("zone cannot be empty")
	}
	if !zonePattern.MatchString(zone) {
		return fmt.Errorf("invalid zone format: %s", zone)
	}
	return nil
}

// NodeName returns a fresh node name for group, e.g. web-3f9a1c
func NodeName(group string) (string, error) {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("failed to generate node name: %w", err)
	}
	name := fmt.Sprintf("%s-%s", group, hex.EncodeToString(suffix))
	if err := ValidateResourceName(name); err != nil {
		return "", err
	}
	return name, nil
}

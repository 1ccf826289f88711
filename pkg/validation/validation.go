// Package validation provides input validation for scenarios and save files.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Input limits
const (
	MaxScenarioNameLen = 64
	MaxFieldSize       = 10000
	MaxBodyRadius      = 1000
	MaxBodyMass        = 1e9
	MaxBodySpeed       = 1000
	MaxTickDelayMS     = 10000
	MaxFileSize        = 16 * 1024 * 1024 // 16MB max scenario or save file
)

// Allow alphanumeric, spaces, hyphens, underscores and dots in scenario names
var validScenarioNameChars = regexp.MustCompile(`^[a-zA-Z0-9\s\-_.]+$`)

// ValidateScenarioName validates and normalizes a scenario name.
func ValidateScenarioName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("scenario name cannot be empty")
	}

	if len(name) > MaxScenarioNameLen {
		return "", fmt.Errorf("scenario name too long: %d characters (max %d)", len(name), MaxScenarioNameLen)
	}

	if !utf8.ValidString(name) {
		return "", fmt.Errorf("scenario name contains invalid UTF-8 characters")
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("scenario name cannot be only whitespace")
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("scenario name contains control characters")
		}
	}

	if !validScenarioNameChars.MatchString(trimmed) {
		return "", fmt.Errorf("scenario name contains invalid characters (only alphanumeric, spaces, hyphens, underscores and dots allowed)")
	}

	return strings.ToLower(trimmed), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ValidateField validates the field dimensions.
func ValidateField(width, height float64) error {
	if !finite(width) || width <= 0 || width > MaxFieldSize {
		return fmt.Errorf("invalid field width: %v (must be in (0, %d])", width, MaxFieldSize)
	}
	if !finite(height) || height <= 0 || height > MaxFieldSize {
		return fmt.Errorf("invalid field height: %v (must be in (0, %d])", height, MaxFieldSize)
	}
	return nil
}

// ValidateBody validates the numeric properties of one body.
func ValidateBody(x, y, vx, vy, radius, mass float64) error {
	if !finite(x) || !finite(y) {
		return fmt.Errorf("position (%v, %v) is not finite", x, y)
	}
	if !finite(vx) || !finite(vy) {
		return fmt.Errorf("velocity (%v, %v) is not finite", vx, vy)
	}
	if speed := math.Hypot(vx, vy); speed > MaxBodySpeed {
		return fmt.Errorf("speed too large: %v (max %d)", speed, MaxBodySpeed)
	}
	if !finite(radius) || radius <= 0 || radius > MaxBodyRadius {
		return fmt.Errorf("invalid radius: %v (must be in (0, %d])", radius, MaxBodyRadius)
	}
	if !finite(mass) || mass <= 0 || mass > MaxBodyMass {
		return fmt.Errorf("invalid mass: %v (must be in (0, %g])", mass, float64(MaxBodyMass))
	}
	return nil
}

// ValidateBodyCount checks n against the configured maximum. A maximum of
// zero or less disables the check.
func ValidateBodyCount(n, max int) error {
	if max > 0 && n > max {
		return fmt.Errorf("too many bodies: %d (max %d)", n, max)
	}
	return nil
}

// ValidateTickDelay validates a tick delay in milliseconds.
func ValidateTickDelay(ms int) error {
	if ms <= 0 || ms > MaxTickDelayMS {
		return fmt.Errorf("invalid tick delay: %dms (must be in [1, %d])", ms, MaxTickDelayMS)
	}
	return nil
}

// ValidateFileSize rejects files larger than MaxFileSize.
func ValidateFileSize(size int64) error {
	if size > MaxFileSize {
		return fmt.Errorf("file too large: %d bytes (max %d)", size, MaxFileSize)
	}
	return nil
}

package config

import (
	"fmt"
	"time"
)

// ValidateTimezone validates a timezone string by attempting to load it
// using the standard library time.LoadLocation function.
//
// The timezone must be a valid IANA timezone name:
//   - Example: "UTC"
//   - Example: "America/New_York"
//   - Example: "Europe/Berlin"
//
// This validation checks if the timezone can be successfully loaded,
// which depends on the availability of timezone data in the system.
// If timezone data is not available (e.g., missing tzdata package in a
// container image), this validation may fail even for valid names.
//
// Example:
//
//	err := ValidateTimezone("Europe/Berlin")
//	if err != nil {
//	    logger.Error("invalid timezone", slog.Any("error", err))
//	}
//
// Common issues:
//   - Missing tzdata package in Docker image
//   - Typo in timezone name
//   - Using UTC offset instead of IANA name (e.g., "+02:00" instead of "Europe/Berlin")
func ValidateTimezone(timezone string) error {
	if timezone == "" {
		return fmt.Errorf("invalid timezone: cannot be empty")
	}

	_, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", timezone, err)
	}

	return nil
}

// ValidateDuration validates that a duration is within a specified range.
// Both bounds are inclusive; min must be <= max.
//
// Error messages include the actual value and the valid range, helping
// operators understand the limits.
//
// Example:
//
//	// Check interval must be between one minute and a day
//	err := ValidateDuration(30*time.Minute, 1*time.Minute, 24*time.Hour)
func ValidateDuration(duration, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
	}

	if duration < min {
		return fmt.Errorf("duration %v is below minimum %v", duration, min)
	}

	if duration > max {
		return fmt.Errorf("duration %v exceeds maximum %v", duration, max)
	}

	return nil
}

// ValidateIntRange validates that an integer value is within a specified
// range. Both bounds are inclusive; min must be <= max.
//
// Example:
//
//	// Concurrency must be between 1 and 50
//	err := ValidateIntRange(10, 1, 50)
//
// Use cases:
//   - Concurrency validation (e.g., 1-50 checks in flight)
//   - Port number validation (e.g., 1024-65535)
//   - Hour-of-day validation (e.g., -1-23, with -1 meaning disabled)
func ValidateIntRange(value, min, max int) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
	}

	if value < min {
		return fmt.Errorf("value %d is below minimum %d", value, min)
	}

	if value > max {
		return fmt.Errorf("value %d exceeds maximum %d", value, max)
	}

	return nil
}

// ValidatePositiveDuration validates that a duration is strictly positive.
// This is the common validation for timeouts, delays, and intervals where
// zero means "disabled" and must not be accepted silently.
//
// Example:
//
//	err := ValidatePositiveDuration(20 * time.Second)
func ValidatePositiveDuration(duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", duration)
	}

	return nil
}

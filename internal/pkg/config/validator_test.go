package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// ValidateTimezone
// ============================================================================

func TestValidateTimezone_ValidNames(t *testing.T) {
	timezones := []string{
		"UTC",
		"America/New_York",
		"Europe/Berlin",
		"Asia/Tokyo",
		"Australia/Sydney",
	}

	for _, tz := range timezones {
		t.Run(tz, func(t *testing.T) {
			assert.NoError(t, ValidateTimezone(tz))
		})
	}
}

func TestValidateTimezone_Empty(t *testing.T) {
	err := ValidateTimezone("")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestValidateTimezone_InvalidNames(t *testing.T) {
	timezones := []string{
		"Not/AZone",
		"berlin",
		"+02:00",
		"GMT+9",
	}

	for _, tz := range timezones {
		t.Run(tz, func(t *testing.T) {
			err := ValidateTimezone(tz)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tz)
		})
	}
}

// ============================================================================
// ValidateDuration
// ============================================================================

func TestValidateDuration_WithinRange(t *testing.T) {
	assert.NoError(t, ValidateDuration(30*time.Minute, 1*time.Minute, 24*time.Hour))
}

func TestValidateDuration_AtBounds(t *testing.T) {
	// Both bounds are inclusive
	assert.NoError(t, ValidateDuration(1*time.Minute, 1*time.Minute, 24*time.Hour))
	assert.NoError(t, ValidateDuration(24*time.Hour, 1*time.Minute, 24*time.Hour))
}

func TestValidateDuration_BelowMinimum(t *testing.T) {
	err := ValidateDuration(10*time.Second, 1*time.Minute, 24*time.Hour)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "below minimum")
}

func TestValidateDuration_AboveMaximum(t *testing.T) {
	err := ValidateDuration(48*time.Hour, 1*time.Minute, 24*time.Hour)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
}

func TestValidateDuration_InvertedRange(t *testing.T) {
	err := ValidateDuration(5*time.Minute, 1*time.Hour, 1*time.Minute)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid range")
}

// ============================================================================
// ValidateIntRange
// ============================================================================

func TestValidateIntRange_WithinRange(t *testing.T) {
	assert.NoError(t, ValidateIntRange(5, 1, 50))
}

func TestValidateIntRange_AtBounds(t *testing.T) {
	assert.NoError(t, ValidateIntRange(1, 1, 50))
	assert.NoError(t, ValidateIntRange(50, 1, 50))
}

func TestValidateIntRange_NegativeBounds(t *testing.T) {
	// Hour-of-day range where -1 means disabled
	assert.NoError(t, ValidateIntRange(-1, -1, 23))
	assert.NoError(t, ValidateIntRange(23, -1, 23))
	assert.Error(t, ValidateIntRange(24, -1, 23))
	assert.Error(t, ValidateIntRange(-2, -1, 23))
}

func TestValidateIntRange_BelowMinimum(t *testing.T) {
	err := ValidateIntRange(0, 1, 50)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "below minimum")
}

func TestValidateIntRange_AboveMaximum(t *testing.T) {
	err := ValidateIntRange(100, 1, 50)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
}

func TestValidateIntRange_InvertedRange(t *testing.T) {
	err := ValidateIntRange(5, 50, 1)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid range")
}

// ============================================================================
// ValidatePositiveDuration
// ============================================================================

func TestValidatePositiveDuration_Positive(t *testing.T) {
	assert.NoError(t, ValidatePositiveDuration(1*time.Nanosecond))
	assert.NoError(t, ValidatePositiveDuration(20*time.Second))
	assert.NoError(t, ValidatePositiveDuration(24*time.Hour))
}

func TestValidatePositiveDuration_Zero(t *testing.T) {
	err := ValidatePositiveDuration(0)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
}

func TestValidatePositiveDuration_Negative(t *testing.T) {
	err := ValidatePositiveDuration(-5 * time.Second)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
}

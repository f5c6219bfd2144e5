package entity

import "errors"

// Sentinel errors shared across the monitoring engine.
var (
	// ErrSourceNotFound indicates that no source exists for the given handle or ID.
	ErrSourceNotFound = errors.New("source not found")

	// ErrSourceInactive indicates that an operation was requested for a
	// source that has been deactivated.
	ErrSourceInactive = errors.New("source is inactive")
)

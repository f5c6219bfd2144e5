package fetch

import "errors"

// Sentinel errors for fetch chain operations.
var (
	// ErrNoStrategies indicates the chain was built without any strategies.
	ErrNoStrategies = errors.New("no fetch strategies configured")

	// ErrAllStrategiesFailed indicates that every strategy either failed or
	// returned an empty result. Callers treat this as a fetch failure for
	// circuit breaker accounting, never as "zero new posts".
	ErrAllStrategiesFailed = errors.New("all fetch strategies failed")
)

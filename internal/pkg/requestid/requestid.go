// Package requestid provides utilities for propagating request IDs through
// context. A delivery dispatch generates one ID and every log line along the
// path (dispatch, rate limiting, webhook retries) carries it, so a single
// notification can be traced across packages.
package requestid

import (
	"context"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// RequestIDKey is the context key for storing request IDs.
const RequestIDKey contextKey = "request_id"

// FromContext retrieves the request ID from the context.
// Returns an empty string if no request ID is found.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

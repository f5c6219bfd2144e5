// Package resilience provides reliability and fault tolerance patterns for the
// monitoring engine.
//
// The package supports:
//   - Circuit breakers guarding upstream endpoints (RSS-Bridge, profile scraping)
//   - A per-source keyed circuit breaker driven by the scheduler
//   - Retry logic with exponential backoff and jitter
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.FeedBridgeConfig())
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return fetchFeed()
//	})
//
//	retryConfig := retry.DefaultConfig()
//	err := retry.WithBackoff(ctx, retryConfig, func() error {
//	    return performOperation()
//	})
package resilience

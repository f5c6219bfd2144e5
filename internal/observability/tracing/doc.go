// Package tracing provides OpenTelemetry tracing integration.
//
// The global tracer covers the monitoring cycle and individual source
// checks so slow fetches can be attributed to a strategy or source.
//
// Example usage:
//
//	import "github.com/hazy2go/instagram-discord-bot/internal/observability/tracing"
//
//	func main() {
//	    shutdown := tracing.InitTracer()
//	    defer shutdown(context.Background())
//	}
//
//	func checkSource(ctx context.Context) {
//	    ctx, span := tracing.StartSpan(ctx, "check-source")
//	    defer span.End()
//	    // ... run the check ...
//	}
package tracing

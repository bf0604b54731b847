// Package observability wires OpenTelemetry tracing.
//
// The authorization resolver and the OAuth broker record spans through
// the global tracer provider. Without InitTracer those spans are no-ops;
// with it they export over OTLP HTTP:
//
//	tp, err := observability.InitTracer(ctx, "catalog", "1.0.0", cfg, nil)
//	defer tp.Shutdown(ctx)
package observability

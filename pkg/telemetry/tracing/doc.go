// Package tracing configures OpenTelemetry tracing for the exporter.
//
// When tracing is disabled, New installs nothing and spans started through
// otel.Tracer are no-ops. When enabled, spans are batched to an OTLP gRPC
// collector and the W3C trace context propagator is installed globally, so
// the export dispatcher, the HTTP API and webhook notifications join the
// caller's trace.
//
//	tracer, err := tracing.New(tracing.Config{
//	    Enabled:     true,
//	    Endpoint:    "localhost:4317",
//	    ServiceName: "fleetdesk-exporter",
//	    SampleRatio: 0.1,
//	    Insecure:    true,
//	})
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
package tracing

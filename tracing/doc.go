// Package tracing wraps OpenTelemetry so hosts can record one span per
// kernel invocation. Without Init spans go to the global no-op provider.
package tracing

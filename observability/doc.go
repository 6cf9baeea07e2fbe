// Package observability provides an OpenTelemetry metrics extension for
// sequences. The MetricsExtension implements lifecycle hooks to record
// system-wide counters for run starts, task outcomes, and run outcomes.
//
// For per-task tracing and duration histograms, see the middleware
// package: middleware.Tracing() and middleware.Metrics().
package observability

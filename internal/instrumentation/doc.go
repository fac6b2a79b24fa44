// Package instrumentation provides OpenTelemetry metrics and audit logging
// for the MCP server.
//
// Metrics cover tool invocations, Calendar API operations and the batch
// engine (sizes, retries). The exporter is selected by configuration:
// prometheus (pull, default), otlp (push) or stdout (development only).
// Audit logging records every tool invocation with cardinality-controlled
// identifiers unless PII logging is explicitly enabled.
package instrumentation

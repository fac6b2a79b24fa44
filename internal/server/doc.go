// Package server provides the MCP server context, health checks, and the
// dedicated metrics server for the mcp-google-calendar application.
//
// ServerContext manages Google Calendar API clients with lazy initialization
// and caching. It supports multiple accounts keyed by name, with tokens read
// from disk via the google package. The context also carries the metrics
// recorder and audit logger used by instrumented tool handlers, and the
// read-only flag that gates mutating tools.
//
// HealthChecker serves /healthz (liveness) and /readyz (readiness) endpoints
// for the HTTP transport, and MetricsServer exposes Prometheus metrics on a
// port isolated from application traffic.
package server

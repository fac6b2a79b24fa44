// Package logging provides structured logging helpers built on log/slog.
//
// It defines the canonical attribute keys used across the server (tool,
// operation, calendar, account, status) plus helpers for anonymizing
// email-shaped identifiers before they reach log output.
package logging

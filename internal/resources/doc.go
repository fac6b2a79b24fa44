// Package resources provides MCP resources for exposing calendar data.
// Resources are read-only data sources that MCP clients can fetch, such as
// the calendar list and the available color palette.
package resources

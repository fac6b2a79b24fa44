// Package calendar_tools provides MCP (Model Context Protocol) tools for Google Calendar operations.
//
// This package exposes Google Calendar functionality through a standardized MCP interface,
// allowing AI assistants to manage calendars, events, and scheduling on behalf of users.
//
// The tools support multi-account authentication and cover event listing and
// search across multiple calendars, event creation and modification (including
// scoped changes to recurring series), availability checks, and browsing of
// calendars and colors. Mutating tools are only registered when the server is
// running with write operations enabled.
package calendar_tools

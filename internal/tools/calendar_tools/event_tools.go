package calendar_tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/rojin-sharrr/mcp-google-calendar/internal/batch"
	"github.com/rojin-sharrr/mcp-google-calendar/internal/calendar"
	"github.com/rojin-sharrr/mcp-google-calendar/internal/recurrence"
	"github.com/rojin-sharrr/mcp-google-calendar/internal/server"
	"github.com/rojin-sharrr/mcp-google-calendar/internal/tools/common"
)

// RegisterEventTools registers event-related tools with the MCP server.
// Mutating tools are only registered when the server is not read-only.
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// List events tool (read-only, always available)
	listEventsTool := mcp.NewTool("list-events",
		mcp.WithDescription("List calendar events within a time range. calendarId accepts a single calendar or an array of up to 50 calendars; multiple calendars are fetched in one batched request."),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID or array of calendar IDs (use 'primary' for the primary calendar)"),
		),
		mcp.WithString("timeMin",
			mcp.Description("Start of the range (RFC3339 format, e.g., '2025-01-01T00:00:00Z'). Unbounded when omitted."),
		),
		mcp.WithString("timeMax",
			mcp.Description("End of the range (RFC3339 format, e.g., '2025-01-31T23:59:59Z'). Unbounded when omitted."),
		),
	)

	s.AddTool(listEventsTool, common.InstrumentedToolHandler("list-events", "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	// Search events tool (read-only, always available)
	searchEventsTool := mcp.NewTool("search-events",
		mcp.WithDescription("Search calendar events by free-text query within a time range"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for the primary calendar)"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text search query (matches summary, description, location, attendees)"),
		),
		mcp.WithString("timeMin",
			mcp.Description("Start of the range (RFC3339 format). Unbounded when omitted."),
		),
		mcp.WithString("timeMax",
			mcp.Description("End of the range (RFC3339 format). Unbounded when omitted."),
		),
	)

	s.AddTool(searchEventsTool, common.InstrumentedToolHandler("search-events", "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchEvents(ctx, request, sc)
		}))

	if sc.ReadOnly() {
		return nil
	}

	// Create event tool
	createEventTool := mcp.NewTool("create-event",
		mcp.WithDescription("Create a new calendar event (single or recurring)"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for the primary calendar)"),
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title/summary"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time (RFC3339 for timed events, YYYY-MM-DD for all-day events)"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time (RFC3339 for timed events, YYYY-MM-DD for all-day events)"),
		),
		mcp.WithString("timeZone",
			mcp.Description("Time zone (e.g., 'America/New_York'). Defaults to the calendar's zone."),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated list of attendee email addresses"),
		),
		mcp.WithString("recurrence",
			mcp.Description("Recurrence rule (e.g., 'RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR')"),
		),
		mcp.WithString("colorId",
			mcp.Description("Event color ID (see list-colors)"),
		),
		mcp.WithString("reminders",
			mcp.Description("Comma-separated reminder offsets in minutes before the event (e.g., '10,60')"),
		),
	)

	s.AddTool(createEventTool, common.InstrumentedToolHandler("create-event", "create", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateEvent(ctx, request, sc)
		}))

	// Update event tool
	updateEventTool := mcp.NewTool("update-event",
		mcp.WithDescription("Update a calendar event. For recurring events, modificationScope selects whether to change the whole series ('all', default), one instance ('thisEventOnly', requires originalStartTime), or the series from a future date on ('thisAndFollowing', requires futureStartDate)."),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for the primary calendar)"),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to update"),
		),
		mcp.WithString("modificationScope",
			mcp.Description("Scope for recurring events: 'all' (default), 'thisEventOnly', or 'thisAndFollowing'"),
		),
		mcp.WithString("originalStartTime",
			mcp.Description("Original start time of the target instance (required for 'thisEventOnly')"),
		),
		mcp.WithString("futureStartDate",
			mcp.Description("Date the change takes effect, strictly in the future (required for 'thisAndFollowing')"),
		),
		mcp.WithString("summary",
			mcp.Description("New event title/summary"),
		),
		mcp.WithString("description",
			mcp.Description("New event description"),
		),
		mcp.WithString("location",
			mcp.Description("New event location"),
		),
		mcp.WithString("start",
			mcp.Description("New start time (RFC3339 or YYYY-MM-DD)"),
		),
		mcp.WithString("end",
			mcp.Description("New end time (RFC3339 or YYYY-MM-DD)"),
		),
		mcp.WithString("timeZone",
			mcp.Description("Time zone (e.g., 'America/New_York')"),
		),
		mcp.WithString("attendees",
			mcp.Description("New comma-separated list of attendee email addresses"),
		),
		mcp.WithString("colorId",
			mcp.Description("New event color ID (see list-colors)"),
		),
		mcp.WithString("recurrence",
			mcp.Description("New recurrence rule (e.g., 'RRULE:FREQ=WEEKLY;BYDAY=MO'); only valid with the 'all' scope"),
		),
		mcp.WithString("reminders",
			mcp.Description("New comma-separated reminder offsets in minutes before the event (e.g., '10,60')"),
		),
	)

	s.AddTool(updateEventTool, common.InstrumentedToolHandler("update-event", "update", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateEvent(ctx, request, sc)
		}))

	// Delete event tool
	deleteEventTool := mcp.NewTool("delete-event",
		mcp.WithDescription("Delete a calendar event"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for the primary calendar)"),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to delete"),
		),
	)

	s.AddTool(deleteEventTool, common.InstrumentedToolHandler("delete-event", "delete", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteEvent(ctx, request, sc)
		}))

	return nil
}

func parseTimeRange(args map[string]interface{}) (time.Time, time.Time, error) {
	timeMinStr, ok := args["timeMin"].(string)
	if !ok || timeMinStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("timeMin is required")
	}
	timeMaxStr, ok := args["timeMax"].(string)
	if !ok || timeMaxStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("timeMax is required")
	}
	return parseTimeBounds(timeMinStr, timeMaxStr)
}

// parseOptionalTimeRange parses a time range where either bound may be
// omitted. A missing bound stays the zero time, meaning unbounded.
func parseOptionalTimeRange(args map[string]interface{}) (time.Time, time.Time, error) {
	timeMinStr, _ := args["timeMin"].(string)
	timeMaxStr, _ := args["timeMax"].(string)
	return parseTimeBounds(timeMinStr, timeMaxStr)
}

func parseTimeBounds(timeMinStr, timeMaxStr string) (time.Time, time.Time, error) {
	var timeMin, timeMax time.Time
	var err error

	if timeMinStr != "" {
		timeMin, err = time.Parse(time.RFC3339, timeMinStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid timeMin format: %v", err)
		}
	}
	if timeMaxStr != "" {
		timeMax, err = time.Parse(time.RFC3339, timeMaxStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid timeMax format: %v", err)
		}
	}

	if !timeMin.IsZero() && !timeMax.IsZero() && !timeMax.After(timeMin) {
		return time.Time{}, time.Time{}, fmt.Errorf("timeMax must be after timeMin")
	}

	return timeMin, timeMax, nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := getAccountFromArgs(args)

	calendarIDs := []string{"primary"}
	if raw, ok := args["calendarId"]; ok && raw != nil {
		var err error
		calendarIDs, err = batch.ParseStringOrArray(raw, "calendarId")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	timeMin, timeMax, err := parseOptionalTimeRange(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	listing, err := client.ListEventsMulti(ctx, calendarIDs, timeMin, timeMax, "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list events: %v", err)), nil
	}

	return mcp.NewToolResultText(formatListing(listing)), nil
}

func handleSearchEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := getAccountFromArgs(args)

	calendarID := "primary"
	if calIDVal, ok := args["calendarId"].(string); ok && calIDVal != "" {
		calendarID = calIDVal
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	timeMin, timeMax, err := parseOptionalTimeRange(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	events, err := client.ListEvents(ctx, calendarID, timeMin, timeMax, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search events: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d events matching %q:\n\n", len(events), query)
	for i, event := range events {
		writeEventSummary(&sb, i+1, event)
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// formatListing renders a multi-calendar listing: a flat list for one
// calendar, groups preceded by their calendar id for several.
func formatListing(listing *calendar.MultiListResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d events:\n\n", listing.Total)

	if len(listing.Calendars) == 1 && len(listing.Warnings) == 0 {
		for i, event := range listing.Calendars[0].Events {
			writeEventSummary(&sb, i+1, event)
		}
	} else {
		for _, group := range listing.Calendars {
			fmt.Fprintf(&sb, "Calendar %s (%d events):\n", group.CalendarID, len(group.Events))
			for i, event := range group.Events {
				writeEventSummary(&sb, i+1, event)
			}
			sb.WriteString("\n")
		}
	}

	for _, warning := range listing.Warnings {
		fmt.Fprintf(&sb, "Warning: calendar %s could not be listed: %s\n", warning.CalendarID, warning.Message)
	}

	return sb.String()
}

func writeEventSummary(sb *strings.Builder, n int, event calendar.EventSummary) {
	fmt.Fprintf(sb, "%d. %s\n", n, event.Summary)
	fmt.Fprintf(sb, "   ID: %s\n", event.ID)
	fmt.Fprintf(sb, "   Start: %s\n", event.Start)
	fmt.Fprintf(sb, "   End: %s\n", event.End)
	if event.Location != "" {
		fmt.Fprintf(sb, "   Location: %s\n", event.Location)
	}
	if event.IsRecurring() {
		fmt.Fprintf(sb, "   Recurring: %s\n", strings.Join(event.Recurrence, "; "))
	}
	if len(event.Attendees) > 0 {
		fmt.Fprintf(sb, "   Attendees: %d\n", len(event.Attendees))
	}
	sb.WriteString("\n")
}

func eventInputFromArgs(args map[string]interface{}) calendar.EventInput {
	var input calendar.EventInput

	if summary, ok := args["summary"].(string); ok {
		input.Summary = summary
	}
	if desc, ok := args["description"].(string); ok {
		input.Description = desc
	}
	if loc, ok := args["location"].(string); ok {
		input.Location = loc
	}
	if start, ok := args["start"].(string); ok {
		input.Start = start
	}
	if end, ok := args["end"].(string); ok {
		input.End = end
	}
	if tz, ok := args["timeZone"].(string); ok {
		input.TimeZone = tz
	}
	if colorID, ok := args["colorId"].(string); ok {
		input.ColorID = colorID
	}

	if attendeesStr, ok := args["attendees"].(string); ok && attendeesStr != "" {
		input.Attendees = strings.Split(attendeesStr, ",")
		for i := range input.Attendees {
			input.Attendees[i] = strings.TrimSpace(input.Attendees[i])
		}
	}

	if rule, ok := args["recurrence"].(string); ok && rule != "" {
		input.Recurrence = []string{rule}
	}

	if reminders, ok := args["reminders"].(string); ok && reminders != "" {
		for _, part := range strings.Split(reminders, ",") {
			if minutes, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
				input.ReminderMinutes = append(input.ReminderMinutes, minutes)
			}
		}
	}

	return input
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := getAccountFromArgs(args)

	calendarID := "primary"
	if calIDVal, ok := args["calendarId"].(string); ok && calIDVal != "" {
		calendarID = calIDVal
	}

	input := eventInputFromArgs(args)

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := client.CreateEvent(ctx, calendarID, input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create event: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Successfully created event: %s\n", event.Summary)
	fmt.Fprintf(&sb, "ID: %s\n", event.ID)
	fmt.Fprintf(&sb, "Start: %s\n", event.Start)
	fmt.Fprintf(&sb, "End: %s\n", event.End)
	if event.IsRecurring() {
		fmt.Fprintf(&sb, "Recurrence: %s\n", strings.Join(event.Recurrence, "; "))
	}
	if event.HTMLLink != "" {
		fmt.Fprintf(&sb, "Link: %s\n", event.HTMLLink)
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := getAccountFromArgs(args)

	calendarID := "primary"
	if calIDVal, ok := args["calendarId"].(string); ok && calIDVal != "" {
		calendarID = calIDVal
	}

	eventID, ok := args["eventId"].(string)
	if !ok || eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	scopeArg := ""
	if s, ok := args["modificationScope"].(string); ok {
		scopeArg = s
	}
	scope, err := recurrence.ParseScope(scopeArg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	originalStartTime := ""
	if s, ok := args["originalStartTime"].(string); ok {
		originalStartTime = s
	}
	futureStartDate := ""
	if s, ok := args["futureStartDate"].(string); ok {
		futureStartDate = s
	}

	input := eventInputFromArgs(args)

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := client.UpdateEventScoped(ctx, calendarID, eventID, input, scope, originalStartTime, futureStartDate)
	if metrics := sc.Metrics(); metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.RecordScopedUpdate(ctx, string(scope), status)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update event: %v", err)), nil
	}

	var sb strings.Builder
	switch scope {
	case recurrence.ScopeThisAndFollowing:
		fmt.Fprintf(&sb, "Successfully split recurring event %s\n", eventID)
		fmt.Fprintf(&sb, "Original series truncated before %s\n", futureStartDate)
		if result.Created != nil {
			fmt.Fprintf(&sb, "New series: %s (starts %s)\n", result.Created.ID, result.Created.Start)
			if result.Created.IsRecurring() {
				fmt.Fprintf(&sb, "Recurrence: %s\n", strings.Join(result.Created.Recurrence, "; "))
			}
		}
	case recurrence.ScopeThisEventOnly:
		fmt.Fprintf(&sb, "Successfully updated instance %s of event %s\n", originalStartTime, eventID)
		fmt.Fprintf(&sb, "Instance ID: %s\n", result.Updated.ID)
	default:
		fmt.Fprintf(&sb, "Successfully updated event: %s\n", result.Updated.Summary)
		fmt.Fprintf(&sb, "ID: %s\n", result.Updated.ID)
		if result.Updated.HTMLLink != "" {
			fmt.Fprintf(&sb, "Link: %s\n", result.Updated.HTMLLink)
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := getAccountFromArgs(args)

	calendarID := "primary"
	if calIDVal, ok := args["calendarId"].(string); ok && calIDVal != "" {
		calendarID = calIDVal
	}

	eventID, ok := args["eventId"].(string)
	if !ok || eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.DeleteEvent(ctx, calendarID, eventID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete event: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Successfully deleted event %s from calendar %s", eventID, calendarID)), nil
}

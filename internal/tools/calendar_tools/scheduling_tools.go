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
	"github.com/rojin-sharrr/mcp-google-calendar/internal/server"
	"github.com/rojin-sharrr/mcp-google-calendar/internal/tools/common"
)

// RegisterSchedulingTools registers availability and time helper tools.
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	freeBusyTool := mcp.NewTool("get-freebusy",
		mcp.WithDescription("Query free/busy intervals for one or more calendars within a time range"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("calendars",
			mcp.Description("Calendar ID or array of calendar IDs to query (default: 'primary')"),
		),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start of the range (RFC3339 format)"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End of the range (RFC3339 format)"),
		),
		mcp.WithString("timeZone",
			mcp.Description("Time zone for the returned intervals (e.g., 'America/New_York')"),
		),
		mcp.WithString("groupExpansionMax",
			mcp.Description("Maximum number of calendars to expand per group (default: 100)"),
		),
		mcp.WithString("calendarExpansionMax",
			mcp.Description("Maximum number of calendars to return busy information for (default: 50)"),
		),
	)

	s.AddTool(freeBusyTool, common.InstrumentedToolHandler("get-freebusy", "freebusy", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetFreeBusy(ctx, request, sc)
		}))

	currentTimeTool := mcp.NewTool("get-current-time",
		mcp.WithDescription("Get the current time, optionally in a specific time zone"),
		mcp.WithString("timeZone",
			mcp.Description("IANA time zone name (e.g., 'Europe/Berlin'). Defaults to UTC."),
		),
	)

	s.AddTool(currentTimeTool, common.InstrumentedToolHandler("get-current-time", "", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetCurrentTime(ctx, request)
		}))

	return nil
}

func handleGetFreeBusy(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := getAccountFromArgs(args)

	calendarIDs := []string{"primary"}
	if raw, ok := args["calendars"]; ok && raw != nil {
		var err error
		calendarIDs, err = batch.ParseStringOrArray(raw, "calendars")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	timeMin, timeMax, err := parseTimeRange(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := calendar.FreeBusyOptions{}
	if tz, ok := args["timeZone"].(string); ok {
		opts.TimeZone = tz
	}
	if raw, ok := args["groupExpansionMax"].(string); ok && raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			return mcp.NewToolResultError("groupExpansionMax must be a positive integer"), nil
		}
		opts.GroupExpansionMax = n
	}
	if raw, ok := args["calendarExpansionMax"].(string); ok && raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			return mcp.NewToolResultError("calendarExpansionMax must be a positive integer"), nil
		}
		opts.CalendarExpansionMax = n
	}

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := client.QueryFreeBusy(ctx, timeMin, timeMax, calendarIDs, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to query free/busy: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Free/busy from %s to %s:\n\n", timeMin.Format(time.RFC3339), timeMax.Format(time.RFC3339))
	for _, info := range results {
		fmt.Fprintf(&sb, "Calendar %s:\n", info.Calendar)
		if len(info.Errors) > 0 {
			fmt.Fprintf(&sb, "  Error: %s\n", strings.Join(info.Errors, "; "))
		} else if len(info.Busy) == 0 {
			sb.WriteString("  Free for the entire range\n")
		} else {
			for _, busy := range info.Busy {
				fmt.Fprintf(&sb, "  Busy: %s to %s\n", busy.Start, busy.End)
			}
		}
		sb.WriteString("\n")
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func handleGetCurrentTime(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	loc := time.UTC
	if tz, ok := args["timeZone"].(string); ok && tz != "" {
		var err error
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("unknown time zone %q", tz)), nil
		}
	}

	now := time.Now().In(loc)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Current time: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Time zone: %s (%s)\n", loc.String(), now.Format("MST"))
	fmt.Fprintf(&sb, "Unix timestamp: %d\n", now.Unix())

	return mcp.NewToolResultText(sb.String()), nil
}

package calendar_tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/rojin-sharrr/mcp-google-calendar/internal/calendar"
	"github.com/rojin-sharrr/mcp-google-calendar/internal/server"
	"github.com/rojin-sharrr/mcp-google-calendar/internal/tools/common"
)

// RegisterCalendarListTools registers calendar and color listing tools.
func RegisterCalendarListTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listCalendarsTool := mcp.NewTool("list-calendars",
		mcp.WithDescription("List all calendars visible to the account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
	)

	s.AddTool(listCalendarsTool, common.InstrumentedToolHandler("list-calendars", "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListCalendars(ctx, request, sc)
		}))

	listColorsTool := mcp.NewTool("list-colors",
		mcp.WithDescription("List the available event color IDs and their hex values"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
	)

	s.AddTool(listColorsTool, common.InstrumentedToolHandler("list-colors", "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListColors(ctx, request, sc)
		}))

	return nil
}

func handleListCalendars(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := getAccountFromArgs(args)

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calendars, err := client.ListCalendars(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list calendars: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d calendars:\n\n", len(calendars))
	for i, cal := range calendars {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, cal.Summary)
		fmt.Fprintf(&sb, "   ID: %s\n", cal.ID)
		if cal.Description != "" {
			fmt.Fprintf(&sb, "   Description: %s\n", cal.Description)
		}
		if cal.TimeZone != "" {
			fmt.Fprintf(&sb, "   Time zone: %s\n", cal.TimeZone)
		}
		if cal.Primary {
			sb.WriteString("   Primary: yes\n")
		}
		if cal.AccessRole != "" {
			fmt.Fprintf(&sb, "   Access: %s\n", cal.AccessRole)
		}
		sb.WriteString("\n")
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func handleListColors(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := getAccountFromArgs(args)

	client, err := getCalendarClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	palette, err := client.ListColors(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list colors: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("Event colors (use the ID as colorId when creating or updating events):\n\n")
	writeColorDefs(&sb, palette.Event)
	sb.WriteString("\nCalendar colors:\n\n")
	writeColorDefs(&sb, palette.Calendar)

	return mcp.NewToolResultText(sb.String()), nil
}

func writeColorDefs(sb *strings.Builder, colors map[string]calendar.ColorDef) {
	ids := make([]string, 0, len(colors))
	for id := range colors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		def := colors[id]
		fmt.Fprintf(sb, "  %s: background %s, foreground %s\n", id, def.Background, def.Foreground)
	}
}

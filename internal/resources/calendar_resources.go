package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/rojin-sharrr/mcp-google-calendar/internal/server"
)

// RegisterCalendarResources registers calendar metadata resources.
// These resources expose the account's calendar list and the color palette
// so MCP clients can browse them without a tool call.
func RegisterCalendarResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Register calendar list resource
	calendarsResource := mcp.NewResource(
		"calendar://calendars",
		"Calendar List",
		mcp.WithResourceDescription("All calendars visible to the default account"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(calendarsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleCalendarList(ctx, request, sc)
	})

	// Register color palette resource
	colorsResource := mcp.NewResource(
		"calendar://colors",
		"Calendar Colors",
		mcp.WithResourceDescription("Event and calendar color definitions, keyed by color id"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(colorsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleColorPalette(ctx, request, sc)
	})

	return nil
}

// handleCalendarList returns the calendar list for the default account
func handleCalendarList(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	client := sc.CalendarClientForAccount("default")
	if client == nil {
		return nil, fmt.Errorf("no Calendar client available for account: default")
	}

	calendars, err := client.ListCalendars(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	entries := make([]map[string]interface{}, 0, len(calendars))
	for _, cal := range calendars {
		entries = append(entries, map[string]interface{}{
			"id":          cal.ID,
			"summary":     cal.Summary,
			"description": cal.Description,
			"timeZone":    cal.TimeZone,
			"primary":     cal.Primary,
			"accessRole":  cal.AccessRole,
		})
	}

	jsonData, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal calendar list: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

// handleColorPalette returns the event and calendar color definitions
func handleColorPalette(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	client := sc.CalendarClientForAccount("default")
	if client == nil {
		return nil, fmt.Errorf("no Calendar client available for account: default")
	}

	palette, err := client.ListColors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list colors: %w", err)
	}

	paletteData := map[string]interface{}{
		"event":    palette.Event,
		"calendar": palette.Calendar,
	}

	jsonData, err := json.MarshalIndent(paletteData, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal color palette: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

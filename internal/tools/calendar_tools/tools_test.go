package calendar_tools

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rojin-sharrr/mcp-google-calendar/internal/calendar"
)

func TestGetAccountFromArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]interface{}
		expected string
	}{
		{
			name:     "no account provided",
			args:     map[string]interface{}{},
			expected: "default",
		},
		{
			name: "account provided",
			args: map[string]interface{}{
				"account": "test-account",
			},
			expected: "test-account",
		},
		{
			name: "empty account string",
			args: map[string]interface{}{
				"account": "",
			},
			expected: "default",
		},
		{
			name: "account with other args",
			args: map[string]interface{}{
				"account":    "work-account",
				"calendarId": "primary",
			},
			expected: "work-account",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := getAccountFromArgs(tt.args)
			if result != tt.expected {
				t.Errorf("getAccountFromArgs() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]interface{}
		wantErr string
	}{
		{
			name: "valid range",
			args: map[string]interface{}{
				"timeMin": "2026-01-01T00:00:00Z",
				"timeMax": "2026-01-31T23:59:59Z",
			},
		},
		{
			name: "missing timeMin",
			args: map[string]interface{}{
				"timeMax": "2026-01-31T23:59:59Z",
			},
			wantErr: "timeMin is required",
		},
		{
			name: "missing timeMax",
			args: map[string]interface{}{
				"timeMin": "2026-01-01T00:00:00Z",
			},
			wantErr: "timeMax is required",
		},
		{
			name: "unparseable timeMin",
			args: map[string]interface{}{
				"timeMin": "January 1st",
				"timeMax": "2026-01-31T23:59:59Z",
			},
			wantErr: "invalid timeMin",
		},
		{
			name: "inverted range",
			args: map[string]interface{}{
				"timeMin": "2026-01-31T00:00:00Z",
				"timeMax": "2026-01-01T00:00:00Z",
			},
			wantErr: "timeMax must be after timeMin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeMin, timeMax, err := parseTimeRange(tt.args)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("expected an error")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %q, expected to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !timeMax.After(timeMin) {
				t.Error("parsed range should be ordered")
			}
		})
	}
}

func TestParseOptionalTimeRange(t *testing.T) {
	timeMin, timeMax, err := parseOptionalTimeRange(map[string]interface{}{})
	if err != nil {
		t.Fatal(err)
	}
	if !timeMin.IsZero() || !timeMax.IsZero() {
		t.Error("missing bounds should stay zero")
	}

	timeMin, timeMax, err = parseOptionalTimeRange(map[string]interface{}{
		"timeMax": "2026-01-31T23:59:59Z",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !timeMin.IsZero() {
		t.Error("missing timeMin should stay zero")
	}
	if timeMax.IsZero() {
		t.Error("timeMax should be parsed")
	}

	_, _, err = parseOptionalTimeRange(map[string]interface{}{
		"timeMin": "not-a-time",
	})
	if err == nil || !strings.Contains(err.Error(), "invalid timeMin") {
		t.Errorf("expected an invalid timeMin error, got %v", err)
	}

	_, _, err = parseOptionalTimeRange(map[string]interface{}{
		"timeMin": "2026-01-31T00:00:00Z",
		"timeMax": "2026-01-01T00:00:00Z",
	})
	if err == nil || !strings.Contains(err.Error(), "timeMax must be after timeMin") {
		t.Errorf("expected an inverted range error, got %v", err)
	}
}

func TestEventInputFromArgs(t *testing.T) {
	input := eventInputFromArgs(map[string]interface{}{
		"summary":    "Team Sync",
		"start":      "2026-02-01T10:00:00Z",
		"end":        "2026-02-01T11:00:00Z",
		"attendees":  "alice@example.com, bob@example.com",
		"recurrence": "RRULE:FREQ=WEEKLY",
		"reminders":  "10, 60",
	})

	if input.Summary != "Team Sync" {
		t.Errorf("Summary = %q", input.Summary)
	}
	if len(input.Attendees) != 2 || input.Attendees[1] != "bob@example.com" {
		t.Errorf("Attendees = %v", input.Attendees)
	}
	if len(input.Recurrence) != 1 || input.Recurrence[0] != "RRULE:FREQ=WEEKLY" {
		t.Errorf("Recurrence = %v", input.Recurrence)
	}
	if len(input.ReminderMinutes) != 2 || input.ReminderMinutes[0] != 10 || input.ReminderMinutes[1] != 60 {
		t.Errorf("ReminderMinutes = %v", input.ReminderMinutes)
	}
}

func TestFormatListingSingleCalendar(t *testing.T) {
	listing := &calendar.MultiListResult{
		Calendars: []calendar.CalendarEvents{
			{
				CalendarID: "primary",
				Events: []calendar.EventSummary{
					{ID: "ev1", Summary: "Standup", Start: "2026-02-01T09:00:00Z", End: "2026-02-01T09:15:00Z"},
				},
			},
		},
		Total: 1,
	}

	out := formatListing(listing)
	if !strings.Contains(out, "Found 1 events") {
		t.Errorf("missing count header:\n%s", out)
	}
	if strings.Contains(out, "Calendar primary") {
		t.Errorf("single-calendar listing should not be grouped:\n%s", out)
	}
	if !strings.Contains(out, "1. Standup") {
		t.Errorf("missing event line:\n%s", out)
	}
}

func TestFormatListingMultiCalendar(t *testing.T) {
	listing := &calendar.MultiListResult{
		Calendars: []calendar.CalendarEvents{
			{
				CalendarID: "work@example.com",
				Events: []calendar.EventSummary{
					{ID: "ev1", Summary: "Planning", Start: "2026-02-01T09:00:00Z", End: "2026-02-01T10:00:00Z"},
				},
			},
			{
				CalendarID: "personal@example.com",
				Events:     nil,
			},
		},
		Warnings: []calendar.ListWarning{
			{CalendarID: "gone@example.com", Message: "calendar not found"},
		},
		Total: 1,
	}

	out := formatListing(listing)
	if !strings.Contains(out, "Calendar work@example.com (1 events):") {
		t.Errorf("missing work calendar group:\n%s", out)
	}
	if !strings.Contains(out, "Calendar personal@example.com (0 events):") {
		t.Errorf("missing empty calendar group:\n%s", out)
	}
	if !strings.Contains(out, "Warning: calendar gone@example.com could not be listed: calendar not found") {
		t.Errorf("missing warning line:\n%s", out)
	}

	// warnings come after the groups
	if strings.Index(out, "Warning:") < strings.Index(out, "personal@example.com") {
		t.Errorf("warnings should follow the calendar groups:\n%s", out)
	}
}

func callToolRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestHandleGetCurrentTime(t *testing.T) {
	result, err := handleGetCurrentTime(context.Background(), callToolRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Time zone: UTC") {
		t.Errorf("expected UTC default:\n%s", text)
	}
	if !strings.Contains(text, "Unix timestamp:") {
		t.Errorf("expected a unix timestamp:\n%s", text)
	}
}

func TestHandleGetCurrentTimeWithZone(t *testing.T) {
	result, err := handleGetCurrentTime(context.Background(), callToolRequest(map[string]interface{}{
		"timeZone": "America/New_York",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result)
	}
	if !strings.Contains(resultText(t, result), "America/New_York") {
		t.Error("expected the requested zone in the output")
	}
}

func TestHandleGetCurrentTimeInvalidZone(t *testing.T) {
	result, err := handleGetCurrentTime(context.Background(), callToolRequest(map[string]interface{}{
		"timeZone": "Mars/Olympus_Mons",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Fatal("expected a tool error for an unknown zone")
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatalf("unexpected content type %T", result.Content[0])
	}
	return text.Text
}

package calendar

import (
	calendar "google.golang.org/api/calendar/v3"
)

// EventInput represents the input for creating or updating a calendar event.
// Start and End are raw timestamp arguments: RFC3339 for timed events,
// YYYY-MM-DD for all-day events.
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       string
	End         string
	TimeZone    string
	Attendees   []string
	Recurrence  []string // RRULE, EXRULE, RDATE, EXDATE
	ColorID     string

	// Reminder overrides in minutes before the event start. Nil keeps the
	// calendar default.
	ReminderMinutes []int64
}

// EventSummary represents a simplified calendar event for listing. Start and
// End keep the API's raw representation (RFC3339 timestamp or bare date) so
// ordering and rendering work uniformly for timed and all-day events.
type EventSummary struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Start       string
	End         string
	AllDay      bool
	Status      string
	Organizer   string
	Attendees   []AttendeeInfo
	Recurrence  []string
	// RecurringEventID is set on materialized instances of a series.
	RecurringEventID string
	HTMLLink         string
	// CalendarID names the source calendar; the aggregator sets it when
	// listing across several calendars.
	CalendarID string
}

// IsRecurring reports whether the event is a series master.
func (e *EventSummary) IsRecurring() bool {
	return len(e.Recurrence) > 0
}

// AttendeeInfo represents information about an event attendee.
type AttendeeInfo struct {
	Email          string
	DisplayName    string
	ResponseStatus string // "needsAction", "declined", "tentative", "accepted"
	Optional       bool
	Organizer      bool
}

// CalendarInfo represents information about a calendar.
type CalendarInfo struct {
	ID          string
	Summary     string
	Description string
	TimeZone    string
	Primary     bool
	AccessRole  string // "owner", "writer", "reader", "freeBusyReader"
}

// ColorDef is one entry of the color palette.
type ColorDef struct {
	Background string `json:"background"`
	Foreground string `json:"foreground"`
}

// ColorPalette holds the event and calendar color definitions, keyed by
// color id.
type ColorPalette struct {
	Event    map[string]ColorDef
	Calendar map[string]ColorDef
}

// FreeBusyInfo represents availability information for one queried calendar.
type FreeBusyInfo struct {
	Calendar string
	Busy     []TimeRange
	// Errors carries per-calendar lookup failures, e.g. "notFound" for an
	// inaccessible calendar. The query as a whole still succeeds.
	Errors []string
}

// TimeRange represents a busy interval.
type TimeRange struct {
	Start string
	End   string
}

// UpdateResult is the outcome of a scoped event update. Updated is the
// patched record (master, instance, or truncated master depending on scope);
// Created is set only for a series split and names the new forward series.
type UpdateResult struct {
	Updated *EventSummary
	Created *EventSummary
}

// toEventSummary converts a Google Calendar event to an EventSummary.
func toEventSummary(event *calendar.Event) EventSummary {
	summary := EventSummary{
		ID:               event.Id,
		Summary:          event.Summary,
		Description:      event.Description,
		Location:         event.Location,
		Status:           event.Status,
		Recurrence:       event.Recurrence,
		RecurringEventID: event.RecurringEventId,
		HTMLLink:         event.HtmlLink,
	}

	if event.Start != nil {
		if event.Start.DateTime != "" {
			summary.Start = event.Start.DateTime
		} else {
			summary.Start = event.Start.Date
			summary.AllDay = true
		}
	}
	if event.End != nil {
		if event.End.DateTime != "" {
			summary.End = event.End.DateTime
		} else {
			summary.End = event.End.Date
		}
	}

	if event.Organizer != nil {
		summary.Organizer = event.Organizer.Email
	}

	for _, att := range event.Attendees {
		summary.Attendees = append(summary.Attendees, AttendeeInfo{
			Email:          att.Email,
			DisplayName:    att.DisplayName,
			ResponseStatus: att.ResponseStatus,
			Optional:       att.Optional,
			Organizer:      att.Organizer,
		})
	}

	return summary
}

// toCalendarInfo converts a Google Calendar list entry to CalendarInfo.
func toCalendarInfo(entry *calendar.CalendarListEntry) CalendarInfo {
	return CalendarInfo{
		ID:          entry.Id,
		Summary:     entry.Summary,
		Description: entry.Description,
		TimeZone:    entry.TimeZone,
		Primary:     entry.Primary,
		AccessRole:  entry.AccessRole,
	}
}

func toColorDef(c calendar.ColorDefinition) ColorDef {
	return ColorDef{Background: c.Background, Foreground: c.Foreground}
}

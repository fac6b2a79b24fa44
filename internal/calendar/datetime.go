package calendar

import (
	"sort"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/rojin-sharrr/mcp-google-calendar/internal/apierr"
	"github.com/rojin-sharrr/mcp-google-calendar/internal/recurrence"
)

// toEventDateTime normalizes a raw timestamp argument into the API's
// date/dateTime split: a bare YYYY-MM-DD becomes an all-day Date, an RFC3339
// value becomes a DateTime with the optional explicit time zone.
func toEventDateTime(field, value, timeZone string) (*calendar.EventDateTime, error) {
	_, allDay, err := recurrence.ParseEventTime(value)
	if err != nil {
		return nil, apierr.NewValidationError(field,
			value+" is neither an RFC3339 timestamp nor a YYYY-MM-DD date")
	}
	if allDay {
		return &calendar.EventDateTime{Date: value}, nil
	}
	return &calendar.EventDateTime{DateTime: value, TimeZone: timeZone}, nil
}

// eventDateTimeValue returns the raw start/end representation of an event
// boundary, whichever of Date or DateTime is set.
func eventDateTimeValue(edt *calendar.EventDateTime) string {
	if edt == nil {
		return ""
	}
	if edt.DateTime != "" {
		return edt.DateTime
	}
	return edt.Date
}

// parseEventBoundary parses an event boundary into a concrete time. All-day
// dates resolve to midnight UTC.
func parseEventBoundary(edt *calendar.EventDateTime) (time.Time, bool, error) {
	if edt == nil {
		return time.Time{}, false, apierr.NewValidationError("event", "event is missing a start or end time")
	}
	if edt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err != nil {
			return time.Time{}, false, err
		}
		return t, false, nil
	}
	t, err := time.Parse("2006-01-02", edt.Date)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// sortEventsByStart orders events by their raw start representation. RFC3339
// timestamps and bare dates both sort chronologically under byte-wise
// comparison as long as offsets are consistent, which the API guarantees
// within one response set.
func sortEventsByStart(events []EventSummary) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start < events[j].Start
	})
}

package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/rojin-sharrr/mcp-google-calendar/internal/apierr"
	"github.com/rojin-sharrr/mcp-google-calendar/internal/batch"
)

// CalendarEvents groups the events of one source calendar.
type CalendarEvents struct {
	CalendarID string
	Events     []EventSummary
}

// ListWarning reports a calendar that could not be listed during a
// multi-calendar query.
type ListWarning struct {
	CalendarID string
	Message    string
}

// MultiListResult is the outcome of listing events across several calendars.
// Calendars preserves the caller's order; Merged holds all events across
// calendars ordered by start time; Warnings names calendars that failed.
type MultiListResult struct {
	Calendars []CalendarEvents
	Merged    []EventSummary
	Warnings  []ListWarning
	Total     int
}

// ListEventsMulti lists events from one or more calendars over a time range.
// A single calendar is queried directly; several calendars are fanned out
// through the batch endpoint in one HTTP call. A failing calendar becomes a
// warning, not a failure of the whole listing; the call errs only when every
// calendar failed.
func (c *Client) ListEventsMulti(ctx context.Context, calendarIDs []string, timeMin, timeMax time.Time, query string) (*MultiListResult, error) {
	if err := validateCalendarIDs("calendarId", calendarIDs); err != nil {
		return nil, err
	}

	// One calendar never pays the batch overhead.
	if len(calendarIDs) == 1 {
		id := calendarIDs[0]
		events, err := c.ListEvents(ctx, id, timeMin, timeMax, query)
		if err != nil {
			return nil, err
		}
		return &MultiListResult{
			Calendars: []CalendarEvents{{CalendarID: id, Events: events}},
			Merged:    events,
			Total:     len(events),
		}, nil
	}

	reqs := make([]batch.SubRequest, len(calendarIDs))
	for i, id := range calendarIDs {
		reqs[i] = batch.SubRequest{
			Method: http.MethodGet,
			Path:   eventsListPath(id, timeMin, timeMax, query),
		}
	}

	responses, err := c.batch.Do(ctx, reqs)
	if err != nil {
		return nil, err
	}

	result := &MultiListResult{}
	for i, resp := range responses {
		id := calendarIDs[i]
		events, err := decodeEventList(resp, id)
		if err != nil {
			result.Warnings = append(result.Warnings, ListWarning{CalendarID: id, Message: err.Error()})
			continue
		}
		result.Calendars = append(result.Calendars, CalendarEvents{CalendarID: id, Events: events})
		result.Merged = append(result.Merged, events...)
		result.Total += len(events)
	}

	if len(result.Calendars) == 0 && len(result.Warnings) > 0 {
		return nil, fmt.Errorf("all %d calendars failed to list: %s (first failure)",
			len(calendarIDs), result.Warnings[0].Message)
	}

	sortEventsByStart(result.Merged)
	return result, nil
}

// validateCalendarIDs rejects empty, oversized or duplicated calendar sets
// before any network call. field names the argument being validated.
func validateCalendarIDs(field string, calendarIDs []string) error {
	if len(calendarIDs) == 0 {
		return apierr.NewValidationError(field, "at least one calendar is required")
	}
	if len(calendarIDs) > batch.MaxBatchSize {
		return apierr.NewValidationError(field,
			fmt.Sprintf("%d calendars exceed the maximum of %d per request", len(calendarIDs), batch.MaxBatchSize))
	}

	seen := make(map[string]bool, len(calendarIDs))
	for _, id := range calendarIDs {
		if id == "" {
			return apierr.NewValidationError(field, "calendar ids cannot be empty")
		}
		if seen[id] {
			return apierr.NewValidationError(field, fmt.Sprintf("duplicate calendar id %q", id))
		}
		seen[id] = true
	}
	return nil
}

// eventsListPath builds the relative events.list path for one calendar,
// mirroring the parameters of the direct single-calendar call.
func eventsListPath(calendarID string, timeMin, timeMax time.Time, query string) string {
	params := url.Values{}
	if !timeMin.IsZero() {
		params.Set("timeMin", timeMin.Format(time.RFC3339))
	}
	if !timeMax.IsZero() {
		params.Set("timeMax", timeMax.Format(time.RFC3339))
	}
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")
	if query != "" {
		params.Set("q", query)
	}
	return "/calendar/v3/calendars/" + url.PathEscape(calendarID) + "/events?" + params.Encode()
}

// decodeEventList turns one batch sub-response into event summaries tagged
// with their source calendar.
func decodeEventList(resp batch.SubResponse, calendarID string) ([]EventSummary, error) {
	if resp.Err != nil {
		return nil, resp.Err
	}
	if resp.StatusCode != http.StatusOK {
		err := apierr.FromStatus(resp.StatusCode, fmt.Errorf("events.list returned status %d", resp.StatusCode),
			"", "calendar "+calendarID)
		return nil, err
	}

	var events calendar.Events
	if err := json.Unmarshal(resp.Body, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events of calendar %s: %w", calendarID, err)
	}

	var summaries []EventSummary
	for _, event := range events.Items {
		s := toEventSummary(event)
		s.CalendarID = calendarID
		summaries = append(summaries, s)
	}
	return summaries, nil
}

package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/rojin-sharrr/mcp-google-calendar/internal/apierr"
	"github.com/rojin-sharrr/mcp-google-calendar/internal/batch"
	"github.com/rojin-sharrr/mcp-google-calendar/internal/google"
	"github.com/rojin-sharrr/mcp-google-calendar/internal/recurrence"
)

// Client wraps the Google Calendar service for one account.
type Client struct {
	svc           *calendar.Service
	batch         *batch.Engine
	account       string
	tokenProvider google.TokenProvider
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// SetMetrics attaches a batch metrics recorder to the client's batch engine.
func (c *Client) SetMetrics(m batch.MetricsRecorder) {
	c.batch.SetMetrics(m)
}

// HasTokenForAccountWithProvider checks if a valid OAuth token exists for the specified account.
func HasTokenForAccountWithProvider(account string, provider google.TokenProvider) bool {
	if provider == nil {
		return false
	}
	return provider.HasTokenForAccount(account)
}

// HasTokenForAccount checks if a valid OAuth token exists for the specified account.
func HasTokenForAccount(account string) bool {
	return HasTokenForAccountWithProvider(account, google.NewFileTokenProvider())
}

// NewClientForAccountWithProvider creates a Calendar client authenticated for
// the given account with tokens from the provider.
func NewClientForAccountWithProvider(ctx context.Context, account string, tokenProvider google.TokenProvider) (*Client, error) {
	if tokenProvider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	token, err := tokenProvider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, &apierr.AuthError{Account: account, Err: err}
	}

	conf := google.GetOAuthConfig()
	httpClient := oauth2.NewClient(ctx, conf.TokenSource(ctx, token))

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{
		svc:           svc,
		batch:         batch.NewEngine(httpClient),
		account:       account,
		tokenProvider: tokenProvider,
	}, nil
}

// NewClientForAccount creates a Calendar client for the account using the
// default file-based token provider.
func NewClientForAccount(ctx context.Context, account string) (*Client, error) {
	return NewClientForAccountWithProvider(ctx, account, google.NewFileTokenProvider())
}

// newClientForTesting wires a client directly to an HTTP client, bypassing
// authentication.
func newClientForTesting(ctx context.Context, httpClient *http.Client, endpoint string) (*Client, error) {
	svc, err := calendar.NewService(ctx,
		option.WithHTTPClient(httpClient),
		option.WithEndpoint(endpoint),
		option.WithoutAuthentication())
	if err != nil {
		return nil, err
	}
	return &Client{
		svc:     svc,
		batch:   batch.NewEngine(httpClient, batch.WithEndpoint(endpoint+"/batch")),
		account: "test",
	}, nil
}

// ListEvents lists events in a calendar, expanded to single instances and
// ordered by start time. Zero timeMin/timeMax leave the range unbounded on
// that side. A non-empty query restricts the results to free-text matches.
func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) ([]EventSummary, error) {
	call := c.svc.Events.List(calendarID).
		Context(ctx).
		SingleEvents(true).
		OrderBy("startTime")

	if !timeMin.IsZero() {
		call = call.TimeMin(timeMin.Format(time.RFC3339))
	}
	if !timeMax.IsZero() {
		call = call.TimeMax(timeMax.Format(time.RFC3339))
	}
	if query != "" {
		call = call.Q(query)
	}

	events, err := call.Do()
	if err != nil {
		return nil, apierr.Translate(err, c.account, "calendar "+calendarID)
	}

	var summaries []EventSummary
	for _, event := range events.Items {
		s := toEventSummary(event)
		s.CalendarID = calendarID
		summaries = append(summaries, s)
	}

	return summaries, nil
}

// GetEvent retrieves a specific event by ID.
func (c *Client) GetEvent(ctx context.Context, calendarID, eventID string) (*EventSummary, error) {
	event, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, apierr.Translate(err, c.account, fmt.Sprintf("event %s in calendar %s", eventID, calendarID))
	}

	summary := toEventSummary(event)
	summary.CalendarID = calendarID
	return &summary, nil
}

// CreateEvent creates a new calendar event.
func (c *Client) CreateEvent(ctx context.Context, calendarID string, input EventInput) (*EventSummary, error) {
	if input.Summary == "" {
		return nil, apierr.NewValidationError("summary", "is required")
	}
	if input.Start == "" || input.End == "" {
		return nil, apierr.NewValidationError("start/end", "both start and end are required")
	}

	event := &calendar.Event{}
	if err := applyInput(event, input); err != nil {
		return nil, err
	}

	created, err := c.svc.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, apierr.Translate(err, c.account, "calendar "+calendarID)
	}

	summary := toEventSummary(created)
	summary.CalendarID = calendarID
	return &summary, nil
}

// PatchEvent applies a partial update to an event. Only the fields set in
// the patch record are touched.
func (c *Client) PatchEvent(ctx context.Context, calendarID, eventID string, patch *calendar.Event) (*EventSummary, error) {
	updated, err := c.svc.Events.Patch(calendarID, eventID, patch).Context(ctx).Do()
	if err != nil {
		return nil, apierr.Translate(err, c.account, fmt.Sprintf("event %s in calendar %s", eventID, calendarID))
	}

	summary := toEventSummary(updated)
	summary.CalendarID = calendarID
	return &summary, nil
}

// DeleteEvent deletes a calendar event.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return apierr.Translate(err, c.account, fmt.Sprintf("event %s in calendar %s", eventID, calendarID))
	}
	return nil
}

// UpdateEventScoped applies field changes to an event under the given
// modification scope. For thisAndFollowing the update becomes a series
// split: the existing master is truncated at futureStartDate and a new
// series carrying the changes is created from that date on.
func (c *Client) UpdateEventScoped(ctx context.Context, calendarID, eventID string, input EventInput,
	scope recurrence.Scope, originalStartTime, futureStartDate string) (*UpdateResult, error) {

	if err := scope.Validate(originalStartTime, futureStartDate, time.Now()); err != nil {
		return nil, err
	}

	// A new recurrence rule rewrites the whole series; scoped updates
	// derive their rules from the master instead.
	if scope != recurrence.ScopeAll && len(input.Recurrence) > 0 {
		return nil, apierr.NewValidationError("recurrence",
			"a new recurrence rule can only be set with the 'all' scope")
	}

	master, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, apierr.Translate(err, c.account, fmt.Sprintf("event %s in calendar %s", eventID, calendarID))
	}

	if scope.RequiresRecurring() && len(master.Recurrence) == 0 {
		return nil, apierr.NewValidationError("modificationScope",
			fmt.Sprintf("%s applies only to recurring events", scope))
	}

	switch scope {
	case recurrence.ScopeAll:
		patch := &calendar.Event{}
		if err := applyInput(patch, input); err != nil {
			return nil, err
		}
		updated, err := c.PatchEvent(ctx, calendarID, eventID, patch)
		if err != nil {
			return nil, err
		}
		return &UpdateResult{Updated: updated}, nil

	case recurrence.ScopeThisEventOnly:
		start, allDay, err := recurrence.ParseEventTime(originalStartTime)
		if err != nil {
			return nil, err
		}
		patch := &calendar.Event{}
		if err := applyInput(patch, input); err != nil {
			return nil, err
		}
		instanceID := recurrence.InstanceID(eventID, start, allDay)
		updated, err := c.PatchEvent(ctx, calendarID, instanceID, patch)
		if err != nil {
			return nil, err
		}
		return &UpdateResult{Updated: updated}, nil

	case recurrence.ScopeThisAndFollowing:
		return c.splitSeries(ctx, calendarID, master, input, futureStartDate)

	default:
		return nil, apierr.NewValidationError("modificationScope", fmt.Sprintf("unsupported scope %q", scope))
	}
}

// splitSeries implements the thisAndFollowing scope. Step one truncates the
// master's recurrence just before the cut; step two creates the new forward
// series. The two steps are not atomic: if the second fails after the first
// succeeded, the caller gets a partial-failure error naming the truncated
// master so the state can be repaired.
func (c *Client) splitSeries(ctx context.Context, calendarID string, master *calendar.Event,
	input EventInput, futureStartDate string) (*UpdateResult, error) {

	cut, cutAllDay, err := recurrence.ParseEventTime(futureStartDate)
	if err != nil {
		return nil, err
	}

	masterStart, startAllDay, err := parseEventBoundary(master.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start of event %s: %w", master.Id, err)
	}
	masterEnd, _, err := parseEventBoundary(master.End)
	if err != nil {
		return nil, fmt.Errorf("failed to parse end of event %s: %w", master.Id, err)
	}
	duration := masterEnd.Sub(masterStart)

	truncated, err := recurrence.TruncateRules(master.Recurrence, cut, startAllDay)
	if err != nil {
		return nil, err
	}
	forward, err := recurrence.ForwardRules(master.Recurrence, masterStart, cut)
	if err != nil {
		return nil, err
	}

	// Step one: bound the existing series.
	updated, err := c.PatchEvent(ctx, calendarID, master.Id, &calendar.Event{Recurrence: truncated})
	if err != nil {
		return nil, err
	}

	// Step two: create the forward series, inheriting the master's fields
	// with the requested changes and the original per-occurrence duration.
	newEvent := forwardSeriesEvent(master, forward, cut, duration, cutAllDay || startAllDay)
	if err := applyInput(newEvent, input); err != nil {
		return nil, err
	}

	created, err := c.svc.Events.Insert(calendarID, newEvent).Context(ctx).Do()
	if err != nil {
		return nil, &apierr.PartialFailureError{
			Operation: "series split",
			Succeeded: []string{fmt.Sprintf("truncated series %s before %s", master.Id, futureStartDate)},
			Failed:    []string{"create the new series starting at " + futureStartDate},
			Err:       apierr.Translate(err, c.account, "calendar "+calendarID),
		}
	}

	createdSummary := toEventSummary(created)
	createdSummary.CalendarID = calendarID
	return &UpdateResult{Updated: updated, Created: &createdSummary}, nil
}

// forwardSeriesEvent builds the insert record for the new series of a split:
// the master's descriptive fields, the forward rules, and start/end at the
// cut with the master's absolute duration.
func forwardSeriesEvent(master *calendar.Event, forward []string, cut time.Time, duration time.Duration, allDay bool) *calendar.Event {
	ev := &calendar.Event{
		Summary:     master.Summary,
		Description: master.Description,
		Location:    master.Location,
		Attendees:   master.Attendees,
		Reminders:   master.Reminders,
		ColorId:     master.ColorId,
		Recurrence:  forward,
	}

	end := cut.Add(duration)
	if allDay {
		ev.Start = &calendar.EventDateTime{Date: cut.Format("2006-01-02")}
		ev.End = &calendar.EventDateTime{Date: end.Format("2006-01-02")}
	} else {
		tz := ""
		if master.Start != nil {
			tz = master.Start.TimeZone
		}
		ev.Start = &calendar.EventDateTime{DateTime: cut.Format(time.RFC3339), TimeZone: tz}
		ev.End = &calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: tz}
	}
	return ev
}

// applyInput copies the set fields of an EventInput onto an API event
// record. Unset fields are left alone so the record can serve as a patch.
func applyInput(event *calendar.Event, input EventInput) error {
	if input.Summary != "" {
		event.Summary = input.Summary
	}
	if input.Description != "" {
		event.Description = input.Description
	}
	if input.Location != "" {
		event.Location = input.Location
	}
	if input.ColorID != "" {
		event.ColorId = input.ColorID
	}

	if input.Start != "" {
		start, err := toEventDateTime("start", input.Start, input.TimeZone)
		if err != nil {
			return err
		}
		event.Start = start
	}
	if input.End != "" {
		end, err := toEventDateTime("end", input.End, input.TimeZone)
		if err != nil {
			return err
		}
		event.End = end
	}

	if len(input.Attendees) > 0 {
		var attendees []*calendar.EventAttendee
		for _, email := range input.Attendees {
			attendees = append(attendees, &calendar.EventAttendee{Email: email})
		}
		event.Attendees = attendees
	}

	if len(input.Recurrence) > 0 {
		event.Recurrence = input.Recurrence
	}

	if input.ReminderMinutes != nil {
		var overrides []*calendar.EventReminder
		for _, m := range input.ReminderMinutes {
			overrides = append(overrides, &calendar.EventReminder{Method: "popup", Minutes: m})
		}
		event.Reminders = &calendar.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault"},
		}
	}

	return nil
}

// ListCalendars lists all calendars accessible to the user.
func (c *Client) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	list, err := c.svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, apierr.Translate(err, c.account, "calendar list")
	}

	var calendars []CalendarInfo
	for _, entry := range list.Items {
		calendars = append(calendars, toCalendarInfo(entry))
	}

	return calendars, nil
}

// ListColors returns the event and calendar color palettes.
func (c *Client) ListColors(ctx context.Context) (*ColorPalette, error) {
	colors, err := c.svc.Colors.Get().Context(ctx).Do()
	if err != nil {
		return nil, apierr.Translate(err, c.account, "color palette")
	}

	palette := &ColorPalette{
		Event:    make(map[string]ColorDef, len(colors.Event)),
		Calendar: make(map[string]ColorDef, len(colors.Calendar)),
	}
	for id, def := range colors.Event {
		palette.Event[id] = toColorDef(def)
	}
	for id, def := range colors.Calendar {
		palette.Calendar[id] = toColorDef(def)
	}

	return palette, nil
}

// FreeBusyOptions tunes a free/busy query. Zero expansion limits fall back
// to the API defaults.
type FreeBusyOptions struct {
	TimeZone             string
	GroupExpansionMax    int64
	CalendarExpansionMax int64
}

// QueryFreeBusy checks availability for calendars in a time range. Lookup
// failures of individual calendars are reported inside their FreeBusyInfo
// rather than failing the query.
func (c *Client) QueryFreeBusy(ctx context.Context, timeMin, timeMax time.Time, calendarIDs []string, opts FreeBusyOptions) ([]FreeBusyInfo, error) {
	if err := validateCalendarIDs("calendars", calendarIDs); err != nil {
		return nil, err
	}

	if opts.GroupExpansionMax == 0 {
		opts.GroupExpansionMax = 100
	}
	if opts.CalendarExpansionMax == 0 {
		opts.CalendarExpansionMax = 50
	}

	items := make([]*calendar.FreeBusyRequestItem, len(calendarIDs))
	for i, id := range calendarIDs {
		items[i] = &calendar.FreeBusyRequestItem{Id: id}
	}

	query := &calendar.FreeBusyRequest{
		TimeMin:              timeMin.Format(time.RFC3339),
		TimeMax:              timeMax.Format(time.RFC3339),
		TimeZone:             opts.TimeZone,
		Items:                items,
		GroupExpansionMax:    opts.GroupExpansionMax,
		CalendarExpansionMax: opts.CalendarExpansionMax,
	}

	result, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
	if err != nil {
		return nil, apierr.Translate(err, c.account, "freebusy query")
	}

	// Preserve the caller's calendar order.
	infos := make([]FreeBusyInfo, 0, len(calendarIDs))
	for _, id := range calendarIDs {
		info := FreeBusyInfo{Calendar: id}
		if cal, ok := result.Calendars[id]; ok {
			for _, busy := range cal.Busy {
				info.Busy = append(info.Busy, TimeRange{Start: busy.Start, End: busy.End})
			}
			for _, calErr := range cal.Errors {
				info.Errors = append(info.Errors, calErr.Reason)
			}
		} else {
			info.Errors = append(info.Errors, "notFound")
		}
		infos = append(infos, info)
	}

	return infos, nil
}

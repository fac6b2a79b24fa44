package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/rojin-sharrr/mcp-google-calendar/internal/apierr"
)

const (
	instanceTimeLayout = "20060102T150405Z"
	instanceDateLayout = "20060102"
)

// InstanceID derives the identifier of a materialized instance from the
// series master id and the instance's original start time. Timed instances
// use the UTC basic timestamp form, all-day instances the bare date.
func InstanceID(masterID string, originalStart time.Time, allDay bool) string {
	if allDay {
		return masterID + "_" + originalStart.UTC().Format(instanceDateLayout)
	}
	return masterID + "_" + originalStart.UTC().Format(instanceTimeLayout)
}

// TruncateRules rewrites a recurrence rule set so the series ends immediately
// before cut. Every RRULE gets an UNTIL bound just before the cut, replacing
// any existing UNTIL or COUNT; EXDATE/RDATE entries keep only the dates that
// fall before the cut. UNTIL must carry the same value type as the series
// start, so all-day series get a bare date (the day before the cut) and timed
// series a UTC timestamp one second before it.
func TruncateRules(recurrence []string, cut time.Time, allDay bool) ([]string, error) {
	until := cut.Add(-time.Second).UTC().Format(instanceTimeLayout)
	if allDay {
		until = cut.AddDate(0, 0, -1).UTC().Format(instanceDateLayout)
	}

	out := make([]string, 0, len(recurrence))
	sawRRule := false
	for _, line := range recurrence {
		switch {
		case strings.HasPrefix(line, "RRULE:"):
			sawRRule = true
			parts := dropRuleParts(strings.TrimPrefix(line, "RRULE:"), "UNTIL", "COUNT")
			parts = append(parts, "UNTIL="+until)
			out = append(out, "RRULE:"+strings.Join(parts, ";"))
		case strings.HasPrefix(line, "EXDATE"), strings.HasPrefix(line, "RDATE"):
			if kept, ok := filterDateLine(line, cut, true); ok {
				out = append(out, kept)
			}
		default:
			out = append(out, line)
		}
	}
	if !sawRRule {
		return nil, apierr.NewValidationError("recurrence", "event has no recurrence rule to truncate")
	}
	return out, nil
}

// ForwardRules computes the rule set for the new series created by a split at
// cut. UNTIL bounds are removed (the new series is open-ended like the
// original), and a COUNT is reduced by the occurrences consumed between the
// original series start and the cut. EXDATE/RDATE entries keep only dates at
// or after the cut.
func ForwardRules(recurrence []string, seriesStart, cut time.Time) ([]string, error) {
	out := make([]string, 0, len(recurrence))
	sawRRule := false
	for _, line := range recurrence {
		switch {
		case strings.HasPrefix(line, "RRULE:"):
			sawRRule = true
			forward, err := forwardRRule(strings.TrimPrefix(line, "RRULE:"), seriesStart, cut)
			if err != nil {
				return nil, err
			}
			out = append(out, "RRULE:"+forward)
		case strings.HasPrefix(line, "EXDATE"), strings.HasPrefix(line, "RDATE"):
			if kept, ok := filterDateLine(line, cut, false); ok {
				out = append(out, kept)
			}
		default:
			out = append(out, line)
		}
	}
	if !sawRRule {
		return nil, apierr.NewValidationError("recurrence", "event has no recurrence rule to carry forward")
	}
	return out, nil
}

// forwardRRule strips the UNTIL bound and rebases a COUNT onto the remaining
// occurrences.
func forwardRRule(body string, seriesStart, cut time.Time) (string, error) {
	parts := dropRuleParts(body, "UNTIL")

	countIdx := -1
	count := 0
	for i, p := range parts {
		if v, ok := strings.CutPrefix(p, "COUNT="); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return "", apierr.NewValidationError("recurrence", fmt.Sprintf("malformed COUNT in rule %q", body))
			}
			countIdx = i
			count = n
		}
	}
	if countIdx < 0 {
		return strings.Join(parts, ";"), nil
	}

	elapsed, err := occurrencesBefore(strings.Join(parts, ";"), seriesStart, cut)
	if err != nil {
		return "", err
	}
	remaining := count - elapsed
	if remaining < 1 {
		return "", apierr.NewValidationError("futureStartDate",
			"no occurrences of the series remain at or after the requested date")
	}
	parts[countIdx] = "COUNT=" + strconv.Itoa(remaining)
	return strings.Join(parts, ";"), nil
}

// occurrencesBefore counts how many occurrences of the rule fall strictly
// before cut, starting the series at seriesStart.
func occurrencesBefore(body string, seriesStart, cut time.Time) (int, error) {
	r, err := rrule.StrToRRule(body)
	if err != nil {
		return 0, apierr.NewValidationError("recurrence", fmt.Sprintf("unparseable rule %q: %v", body, err))
	}
	r.DTStart(seriesStart)
	return len(r.Between(seriesStart, cut.Add(-time.Second), true)), nil
}

// dropRuleParts splits an RRULE body on ';' and removes parts whose key is in
// drop.
func dropRuleParts(body string, drop ...string) []string {
	var out []string
	for _, part := range strings.Split(body, ";") {
		if part == "" {
			continue
		}
		key, _, _ := strings.Cut(part, "=")
		skip := false
		for _, d := range drop {
			if strings.EqualFold(key, d) {
				skip = true
			}
		}
		if !skip {
			out = append(out, part)
		}
	}
	return out
}

// filterDateLine keeps only the dates of an EXDATE/RDATE line that fall on
// the requested side of cut (before when before is true, at-or-after
// otherwise). Returns false when no date survives.
func filterDateLine(line string, cut time.Time, before bool) (string, bool) {
	prefix, values, found := strings.Cut(line, ":")
	if !found {
		return line, true
	}

	loc := locationFromParams(prefix)

	var kept []string
	for _, v := range strings.Split(values, ",") {
		t, err := parseRuleDate(v, loc)
		if err != nil {
			// Unrecognized date form: keep it rather than silently dropping.
			kept = append(kept, v)
			continue
		}
		if before == t.Before(cut) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return "", false
	}
	return prefix + ":" + strings.Join(kept, ","), true
}

// locationFromParams extracts a TZID parameter from an EXDATE/RDATE property
// prefix, defaulting to UTC.
func locationFromParams(prefix string) *time.Location {
	for _, param := range strings.Split(prefix, ";") {
		if v, ok := strings.CutPrefix(param, "TZID="); ok {
			if loc, err := time.LoadLocation(v); err == nil {
				return loc
			}
		}
	}
	return time.UTC
}

func parseRuleDate(v string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(instanceTimeLayout, v); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("20060102T150405", v, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(instanceDateLayout, v, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized recurrence date %q", v)
}

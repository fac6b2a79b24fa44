package recurrence

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rojin-sharrr/mcp-google-calendar/internal/apierr"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		in      string
		want    Scope
		wantErr bool
	}{
		{in: "", want: ScopeAll},
		{in: "all", want: ScopeAll},
		{in: "thisEventOnly", want: ScopeThisEventOnly},
		{in: "thisAndFollowing", want: ScopeThisAndFollowing},
		{in: "everything", wantErr: true},
		{in: "ALL", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseScope(tt.in)
			if tt.wantErr {
				var ve *apierr.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("ParseScope(%q) error = %v, expected a validation error", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseScope(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseScope(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateThisEventOnlyRequiresOriginalStartTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := ScopeThisEventOnly.Validate("", "", now)
	if err == nil {
		t.Fatal("expected an error for a missing originalStartTime")
	}
	if !strings.Contains(err.Error(), "originalStartTime") {
		t.Errorf("error should mention originalStartTime: %v", err)
	}

	if err := ScopeThisEventOnly.Validate("2026-03-02T10:00:00Z", "", now); err != nil {
		t.Errorf("unexpected error with originalStartTime present: %v", err)
	}
}

func TestValidateThisAndFollowingRequiresFutureDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		futureDate string
		wantErr    string
	}{
		{name: "missing", futureDate: "", wantErr: "futureStartDate"},
		{name: "in the past", futureDate: "2026-02-01T10:00:00Z", wantErr: "must be in the future"},
		{name: "exactly now", futureDate: "2026-03-01T12:00:00Z", wantErr: "must be in the future"},
		{name: "future timestamp", futureDate: "2026-03-09T10:00:00Z"},
		{name: "future date only", futureDate: "2026-03-09"},
		{name: "garbage", futureDate: "next tuesday", wantErr: "neither"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ScopeThisAndFollowing.Validate("", tt.futureDate, now)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, expected mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAllScopeNeedsNothing(t *testing.T) {
	if err := ScopeAll.Validate("", "", time.Now()); err != nil {
		t.Errorf("scope all should not require extra arguments: %v", err)
	}
	if ScopeAll.RequiresRecurring() {
		t.Error("scope all must be valid on non-recurring events")
	}
	if !ScopeThisEventOnly.RequiresRecurring() || !ScopeThisAndFollowing.RequiresRecurring() {
		t.Error("instance-level scopes only apply to recurring events")
	}
}

func TestParseEventTime(t *testing.T) {
	if _, allDay, err := ParseEventTime("2026-03-09T10:00:00-05:00"); err != nil || allDay {
		t.Errorf("RFC3339 timestamp: allDay=%v err=%v", allDay, err)
	}
	if _, allDay, err := ParseEventTime("2026-03-09"); err != nil || !allDay {
		t.Errorf("date only: allDay=%v err=%v", allDay, err)
	}
	if _, _, err := ParseEventTime("03/09/2026"); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}

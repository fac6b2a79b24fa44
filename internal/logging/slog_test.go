package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestAnonymizeEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{name: "regular email", email: "user@example.com"},
		{name: "calendar id", email: "team-calendar@group.calendar.google.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnonymizeEmail(tt.email)
			if !strings.HasPrefix(got, "user:") {
				t.Errorf("AnonymizeEmail() = %q, expected user: prefix", got)
			}
			if strings.Contains(got, tt.email) {
				t.Errorf("AnonymizeEmail() leaked the input: %q", got)
			}
			// Same input must hash to the same value for log correlation.
			if again := AnonymizeEmail(tt.email); again != got {
				t.Errorf("AnonymizeEmail() not deterministic: %q vs %q", got, again)
			}
		})
	}
}

func TestAnonymizeEmailEmpty(t *testing.T) {
	if got := AnonymizeEmail(""); got != "" {
		t.Errorf("AnonymizeEmail(\"\") = %q, expected empty", got)
	}
}

func TestErrNilOmitted(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logger.Info("op done", Err(nil))
	if strings.Contains(buf.String(), "error=") {
		t.Errorf("nil error produced an error attribute: %s", buf.String())
	}

	buf.Reset()
	logger.Info("op failed", Err(errTest))
	if !strings.Contains(buf.String(), "error=") {
		t.Errorf("error attribute missing: %s", buf.String())
	}
}

var errTest = &testError{}

type testError struct{}

func (*testError) Error() string { return "test failure" }

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"user@example.com", "example.com"},
		{"not-an-email", ""},
		{"", ""},
		{"a@b@c", ""},
	}

	for _, tt := range tests {
		if got := ExtractDomain(tt.email); got != tt.expected {
			t.Errorf("ExtractDomain(%q) = %q, expected %q", tt.email, got, tt.expected)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken(""); got != "<empty>" {
		t.Errorf("SanitizeToken(\"\") = %q", got)
	}
	got := SanitizeToken("ya29.secret-token")
	if strings.Contains(got, "secret") {
		t.Errorf("SanitizeToken() leaked token content: %q", got)
	}
}

func TestCalendarAttr(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("listing", Calendar("primary"), BatchSize(3))

	out := buf.String()
	if !strings.Contains(out, "calendar=primary") || !strings.Contains(out, "batch_size=3") {
		t.Errorf("unexpected output: %s", out)
	}
}

package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// ValidationError reports malformed, missing or contradictory input. It is
// raised before any external call is attempted.
type ValidationError struct {
	// Field names the offending argument, when one can be identified.
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// NewValidationError creates a ValidationError for a specific field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AuthError reports an invalid or expired delegated credential. Refreshing the
// credential is the token provider's job; this error is never retried here.
type AuthError struct {
	Account string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for account %q: %v (re-authorize with google_save_auth_code)", e.Account, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NotFoundError reports a missing calendar or event.
type NotFoundError struct {
	// Resource identifies what was looked up, e.g. "calendar work@x.com" or
	// "event abc123 in calendar primary".
	Resource string
	Err      error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// RateLimitError reports Calendar API throttling that survived the retry
// budget (or occurred on a non-retried single call).
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by the Calendar API: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// TransientError reports a network-level or upstream 5xx failure.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient Calendar API failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PartialFailureError reports an operation where some sub-operations succeeded
// and others failed. Succeeded and Failed carry enough detail for the caller
// to tell which is which; this matters most for an interrupted series split,
// where the master has already been truncated.
type PartialFailureError struct {
	Operation string
	Succeeded []string
	Failed    []string
	Err       error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s partially failed (completed: %v; failed: %v): %v",
		e.Operation, e.Succeeded, e.Failed, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// Translate classifies an error returned by the Calendar API (or the HTTP
// layer under it) into the taxonomy. The resource argument names the target
// for not-found messages. Errors that are already taxonomy members pass
// through unchanged; anything unclassifiable is returned as-is.
func Translate(err error, account, resource string) error {
	if err == nil {
		return nil
	}

	var ve *ValidationError
	var ae *AuthError
	var nfe *NotFoundError
	var rle *RateLimitError
	var te *TransientError
	var pfe *PartialFailureError
	if errors.As(err, &ve) || errors.As(err, &ae) || errors.As(err, &nfe) ||
		errors.As(err, &rle) || errors.As(err, &te) || errors.As(err, &pfe) {
		return err
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return FromStatus(gerr.Code, err, account, resource)
	}

	return err
}

// FromStatus classifies a bare HTTP status code. Used by the batch engine,
// which sees raw embedded status lines rather than googleapi errors.
func FromStatus(code int, err error, account, resource string) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &AuthError{Account: account, Err: err}
	case code == http.StatusNotFound || code == http.StatusGone:
		return &NotFoundError{Resource: resource, Err: err}
	case code == http.StatusTooManyRequests:
		return &RateLimitError{Err: err}
	case code >= 500:
		return &TransientError{Err: err}
	case code == http.StatusBadRequest:
		return &ValidationError{Message: err.Error()}
	default:
		return err
	}
}

// IsRetryable reports whether the whole-batch retry policy may retry after
// this error. Only rate limiting and transient failures qualify.
func IsRetryable(err error) bool {
	var rle *RateLimitError
	var te *TransientError
	return errors.As(err, &rle) || errors.As(err, &te)
}

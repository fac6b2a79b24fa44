// Package apierr defines the error taxonomy shared by the calendar client,
// the batch engine and the tool handlers.
//
// Every failure surfaced to an MCP client is classified as one of:
//
//   - ValidationError: malformed or contradictory input, rejected before any
//     network call
//   - AuthError: the delegated credential is invalid or expired
//   - NotFoundError: the target calendar or event does not exist
//   - RateLimitError: the Calendar API is throttling
//   - TransientError: a network or upstream 5xx failure that may be retried
//   - PartialFailureError: a multi-step or fanned-out operation where some
//     sub-operations succeeded and others failed
//
// Translate converts googleapi errors into the taxonomy so handlers never
// inspect HTTP status codes themselves.
package apierr

// Package recurrence implements the rule arithmetic behind scoped updates of
// recurring events: deriving instance identifiers from a master id and an
// original start time, truncating a recurrence rule set with an UNTIL bound,
// and producing the forward rule set for a series split with occurrence
// counts reduced by what already elapsed.
//
// The package only computes rule sets and identifiers; issuing the actual
// patch and insert calls is the calendar client's job.
package recurrence

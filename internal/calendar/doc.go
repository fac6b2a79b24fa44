// Package calendar wraps the Google Calendar API for the tool layer.
//
// The Client exposes simplified summary types rather than raw API records,
// translates API failures into the shared error taxonomy, and implements the
// two operations with real orchestration behind them: multi-calendar event
// listing (fanned out through the batch endpoint when more than one calendar
// is requested) and scope-aware updates of recurring series, including the
// two-step series split for thisAndFollowing.
package calendar

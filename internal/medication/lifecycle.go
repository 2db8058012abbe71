package medication

import (
	"fmt"
	"time"

	apperrors "github.com/gmsas95/medremind/internal/errors"
)

// DefaultSnoozeDelay is how long a snoozed reminder stays hidden
const DefaultSnoozeDelay = 10 * time.Minute

// MarkTaken moves a Pending or Snoozed entry to Taken
func MarkTaken(e *LogEntry, now time.Time) error {
	if e.Status != StatusPending && e.Status != StatusSnoozed {
		return apperrors.Transition(string(e.Status), string(StatusTaken))
	}
	e.Status = StatusTaken
	e.SnoozeUntil = nil
	e.Timestamp = now
	return nil
}

// Snooze moves a Pending entry to Snoozed until now+delay.
// The entry's timestamp is left alone so history order is unchanged.
func Snooze(e *LogEntry, now time.Time, delay time.Duration) error {
	if e.Status != StatusPending {
		return apperrors.Transition(string(e.Status), string(StatusSnoozed))
	}
	until := now.Add(delay)
	e.Status = StatusSnoozed
	e.SnoozeUntil = &until
	return nil
}

// MarkMissed moves a Pending or Snoozed entry to Missed with an optional reason
func MarkMissed(e *LogEntry, reason MissReason, now time.Time) error {
	if reason != "" && !reason.Valid() {
		return apperrors.New(apperrors.ErrBadRequest.Code, fmt.Sprintf("unknown miss reason %q", reason))
	}
	if e.Status != StatusPending && e.Status != StatusSnoozed {
		return apperrors.Transition(string(e.Status), string(StatusMissed))
	}
	e.Status = StatusMissed
	e.MissReason = reason
	e.SnoozeUntil = nil
	e.Timestamp = now
	return nil
}

// ResumeIfDue returns a Snoozed entry to Pending once its resume time has
// passed. It reports whether the entry changed.
func ResumeIfDue(e *LogEntry, now time.Time) bool {
	if e.Status != StatusSnoozed {
		return false
	}
	if e.SnoozeUntil != nil && now.Before(*e.SnoozeUntil) {
		return false
	}
	e.Status = StatusPending
	e.SnoozeUntil = nil
	return true
}

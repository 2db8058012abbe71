package engine

import (
	"context"
	"time"

	apperrors "github.com/gmsas95/medremind/internal/errors"
	"github.com/gmsas95/medremind/internal/medication"
	"go.uber.org/zap"
)

// Take marks a Pending or Snoozed dose as Taken
func (e *Engine) Take(logID string) (medication.LogEntry, error) {
	return e.transition(logID, string(medication.StatusTaken), func(entry *medication.LogEntry, now time.Time) error {
		return medication.MarkTaken(entry, now)
	})
}

// Snooze hides a Pending dose for the configured delay. A timer returns it
// to Pending when the delay runs out.
func (e *Engine) Snooze(logID string) (medication.LogEntry, error) {
	return e.transition(logID, string(medication.StatusSnoozed), func(entry *medication.LogEntry, now time.Time) error {
		if err := medication.Snooze(entry, now, e.snoozeDelay); err != nil {
			return err
		}
		e.armSnoozeLocked(entry.ID, *entry.SnoozeUntil)
		return nil
	})
}

// Miss marks a Pending or Snoozed dose as Missed and raises the caregiver
// alert once the medicine reaches the miss threshold.
func (e *Engine) Miss(logID string, reason medication.MissReason) (medication.LogEntry, error) {
	return e.transition(logID, string(medication.StatusMissed), func(entry *medication.LogEntry, now time.Time) error {
		return medication.MarkMissed(entry, reason, now)
	})
}

func (e *Engine) transition(logID, to string, apply func(*medication.LogEntry, time.Time) error) (medication.LogEntry, error) {
	now := e.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	idx, ok := e.logIndex[logID]
	if !ok {
		e.logger.Warn("Dose not found", zap.String("log_id", logID), zap.String("to", to))
		return medication.LogEntry{}, apperrors.NotFound("log entry", logID)
	}

	// work on a copy so a rejected transition leaves no trace
	entry := e.logs[idx]
	wasSnoozed := entry.Status == medication.StatusSnoozed
	if err := apply(&entry, now); err != nil {
		e.logger.Warn("Rejected dose transition",
			zap.String("log_id", logID),
			zap.String("from", string(e.logs[idx].Status)),
			zap.String("to", to),
			zap.Error(err))
		return e.logs[idx], err
	}
	e.logs[idx] = entry

	if wasSnoozed && entry.Status != medication.StatusSnoozed {
		e.sched.Cancel(snoozeJobPrefix + logID)
	}

	e.afterLogChangeLocked(&e.logs[idx])
	e.metrics.RecordDose(string(entry.Status))
	e.metrics.SetPending(len(medication.PendingToday(e.logs, medication.DayKey(now))))

	if entry.Status == medication.StatusMissed {
		e.checkCaregiverLocked(entry)
	}
	return entry, nil
}

func (e *Engine) checkCaregiverLocked(entry medication.LogEntry) {
	if !medication.CaregiverConditionMet(e.logs, entry.MedicineID, e.threshold) {
		return
	}
	if e.alert.Visible {
		return
	}

	name := entry.MedicineName
	if m, ok := e.medicines.Get(entry.MedicineID); ok {
		name = m.Name
	}
	e.alert = medication.CaregiverAlert{Visible: true, MedicineName: name}
	e.saveAlertLocked()

	alert := e.alert
	e.publishLocked(Event{Type: EventAlertRaised, MedicineID: entry.MedicineID, Alert: &alert})
	e.metrics.RecordAlert()
	e.logger.Warn("Caregiver alert raised",
		zap.String("medicine_id", entry.MedicineID),
		zap.String("name", name),
		zap.Int("missed", medication.MissedCount(e.logs, entry.MedicineID)))
}

// CaregiverAlert returns the current alert flag
func (e *Engine) CaregiverAlert() medication.CaregiverAlert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alert
}

// DismissCaregiverAlert hides the alert. A later miss past the threshold
// raises it again.
func (e *Engine) DismissCaregiverAlert() medication.CaregiverAlert {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.alert.Visible {
		return e.alert
	}
	e.alert = medication.CaregiverAlert{}
	e.saveAlertLocked()

	alert := e.alert
	e.publishLocked(Event{Type: EventAlertDismissed, Alert: &alert})
	return alert
}

func (e *Engine) saveAlertLocked() {
	if e.persist == nil {
		return
	}
	alert := e.alert
	e.persist.enqueue("save_alert", func(ctx context.Context, repo Repository) error {
		return repo.SaveAlert(ctx, alert)
	})
}

// GetLog returns one log entry
func (e *Engine) GetLog(logID string) (medication.LogEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, ok := e.logIndex[logID]
	if !ok {
		return medication.LogEntry{}, apperrors.NotFound("log entry", logID)
	}
	return e.logs[idx], nil
}

// ListPendingToday returns today's Pending reminders
func (e *Engine) ListPendingToday() []medication.LogEntry {
	today := medication.DayKey(e.Now())

	e.mu.Lock()
	defer e.mu.Unlock()
	return medication.PendingToday(e.logs, today)
}

// ListToday returns all of today's entries regardless of status
func (e *Engine) ListToday() []medication.LogEntry {
	today := medication.DayKey(e.Now())

	e.mu.Lock()
	defer e.mu.Unlock()
	return medication.ForDay(e.logs, today)
}

// ListHistory returns every entry, newest first
func (e *Engine) ListHistory() []medication.LogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return medication.History(e.logs)
}

// Logs returns a copy of every entry in creation order
func (e *Engine) Logs() []medication.LogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]medication.LogEntry(nil), e.logs...)
}

package medication

import (
	"fmt"
	"time"
)

// civil strips the clock from t, keeping t's own calendar date
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole calendar days from a to b
func daysBetween(a, b time.Time) int {
	return int(civil(b).Sub(civil(a)).Hours() / 24)
}

// InWindow reports whether date falls inside the medicine's inclusive
// [StartDate, EndDate] window. Window bounds are calendar dates.
func InWindow(m *Medicine, date time.Time) bool {
	day := civil(date)
	if m.StartDate != nil && day.Before(civil(*m.StartDate)) {
		return false
	}
	if m.EndDate != nil && day.After(civil(*m.EndDate)) {
		return false
	}
	return true
}

// IsDueOn decides whether m needs a dose on date. date is interpreted in its
// own location; CreatedAt is converted to that location before comparing.
func IsDueOn(m *Medicine, date time.Time) bool {
	if !InWindow(m, date) {
		return false
	}

	switch m.Recurrence.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyAlternate:
		// Symmetric around the creation day; dates before creation are never queried in practice.
		diff := daysBetween(m.CreatedAt.In(date.Location()), date)
		if diff < 0 {
			diff = -diff
		}
		return diff%2 == 0
	case FrequencySpecific:
		wd := WeekdayOf(date)
		for _, d := range m.Recurrence.SpecificDays {
			if d == wd {
				return true
			}
		}
		return false
	case FrequencyCustom:
		_, ok := m.Recurrence.Custom[WeekdayOf(date)]
		return ok
	}
	return false
}

// EffectiveDose resolves the timing and dosage that apply on date.
// Custom overrides win; blank override fields fall back to the defaults.
func EffectiveDose(m *Medicine, date time.Time) (Timing, string) {
	timing, dosage := m.Timing, m.Dosage
	if m.Recurrence.Frequency != FrequencyCustom {
		return timing, dosage
	}
	if o, ok := m.Recurrence.Custom[WeekdayOf(date)]; ok {
		if o.Timing != "" {
			timing = o.Timing
		}
		if o.Dosage != "" {
			dosage = o.Dosage
		}
	}
	return timing, dosage
}

// ReminderMessage builds the text shown on a reminder card
func ReminderMessage(name, dosage string, timing Timing) string {
	return fmt.Sprintf("Please take %s (%s) %s", name, dosage, timing.Label())
}

// DueOn filters medicines down to those due on date, preserving order
func DueOn(medicines []Medicine, date time.Time) []Medicine {
	var due []Medicine
	for i := range medicines {
		if IsDueOn(&medicines[i], date) {
			due = append(due, medicines[i])
		}
	}
	return due
}

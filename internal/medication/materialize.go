package medication

import "time"

// IDFunc mints identifiers for new log entries
type IDFunc func() string

func entryKey(medicineID, dayKey string) string {
	return medicineID + "|" + dayKey
}

// MaterializeToday returns the Pending entries that must be added so every
// medicine due on today has exactly one entry for today's day key. Existing
// entries are never touched; calling it again with the merged result yields
// nothing new.
func MaterializeToday(medicines []Medicine, existing []LogEntry, today time.Time, newID IDFunc) []LogEntry {
	dayKey := DayKey(today)

	seen := make(map[string]bool, len(existing))
	for i := range existing {
		seen[entryKey(existing[i].MedicineID, existing[i].DayKey)] = true
	}

	var created []LogEntry
	for i := range medicines {
		m := &medicines[i]
		if !IsDueOn(m, today) {
			continue
		}
		key := entryKey(m.ID, dayKey)
		if seen[key] {
			continue
		}
		seen[key] = true

		timing, dosage := EffectiveDose(m, today)
		created = append(created, LogEntry{
			ID:           newID(),
			MedicineID:   m.ID,
			MedicineName: m.Name,
			Dosage:       dosage,
			Timing:       timing,
			Message:      ReminderMessage(m.Name, dosage, timing),
			Status:       StatusPending,
			Timestamp:    today,
			DayKey:       dayKey,
		})
	}
	return created
}

package medication

import (
	"fmt"
	"sort"
)

// DefaultMissThreshold is the miss count that raises a caregiver alert
const DefaultMissThreshold = 2

// MissedCount counts Missed entries for a medicine
func MissedCount(logs []LogEntry, medicineID string) int {
	n := 0
	for i := range logs {
		if logs[i].MedicineID == medicineID && logs[i].Status == StatusMissed {
			n++
		}
	}
	return n
}

// PendingToday returns Pending entries belonging to dayKey
func PendingToday(logs []LogEntry, dayKey string) []LogEntry {
	var out []LogEntry
	for i := range logs {
		if logs[i].Status == StatusPending && logs[i].DayKey == dayKey {
			out = append(out, logs[i])
		}
	}
	return out
}

// ForDay returns every entry belonging to dayKey
func ForDay(logs []LogEntry, dayKey string) []LogEntry {
	var out []LogEntry
	for i := range logs {
		if logs[i].DayKey == dayKey {
			out = append(out, logs[i])
		}
	}
	return out
}

// Missed returns all Missed entries in input order
func Missed(logs []LogEntry) []LogEntry {
	var out []LogEntry
	for i := range logs {
		if logs[i].Status == StatusMissed {
			out = append(out, logs[i])
		}
	}
	return out
}

// CaregiverConditionMet reports whether medicineID has reached the miss threshold
func CaregiverConditionMet(logs []LogEntry, medicineID string, threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultMissThreshold
	}
	return MissedCount(logs, medicineID) >= threshold
}

// History returns a copy of logs ordered by timestamp, newest first.
// Entries with equal timestamps keep their input order.
func History(logs []LogEntry) []LogEntry {
	out := make([]LogEntry, len(logs))
	copy(out, logs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// AdherenceRate is the percentage of resolved doses that were taken
func AdherenceRate(logs []LogEntry) float64 {
	taken, resolved := 0, 0
	for i := range logs {
		switch logs[i].Status {
		case StatusTaken:
			taken++
			resolved++
		case StatusMissed:
			resolved++
		}
	}
	if resolved == 0 {
		return 0
	}
	return float64(taken) / float64(resolved) * 100
}

// AdherenceStatus grades a medicine's miss history
type AdherenceStatus string

const (
	AdherenceGood    AdherenceStatus = "good"
	AdherenceWarning AdherenceStatus = "warning"
	AdherenceAlert   AdherenceStatus = "alert"
)

// MedicineAdherence is one row of the adherence overview
type MedicineAdherence struct {
	MedicineID  string          `json:"medicine_id"`
	Name        string          `json:"name"`
	Timing      Timing          `json:"timing"`
	MissedCount int             `json:"missed_count"`
	Status      AdherenceStatus `json:"status"`
}

// Overview grades every medicine in catalog order
func Overview(medicines []Medicine, logs []LogEntry, threshold int) []MedicineAdherence {
	if threshold <= 0 {
		threshold = DefaultMissThreshold
	}
	out := make([]MedicineAdherence, 0, len(medicines))
	for _, m := range medicines {
		n := MissedCount(logs, m.ID)
		status := AdherenceGood
		switch {
		case n >= threshold:
			status = AdherenceAlert
		case n > 0:
			status = AdherenceWarning
		}
		out = append(out, MedicineAdherence{
			MedicineID:  m.ID,
			Name:        m.Name,
			Timing:      m.Timing,
			MissedCount: n,
			Status:      status,
		})
	}
	return out
}

// MissSummary aggregates the misses recorded under one medicine name
type MissSummary struct {
	MedicineName string     `json:"medicine_name"`
	Count        int        `json:"count"`
	Timing       Timing     `json:"timing"`
	CommonReason MissReason `json:"common_reason,omitempty"`
}

// Line renders the summary the way the caregiver view shows it
func (s MissSummary) Line() string {
	plural := ""
	if s.Count > 1 {
		plural = "s"
	}
	line := fmt.Sprintf("%s missed %d time%s (%s)", s.MedicineName, s.Count, plural, s.Timing.Label())
	if s.CommonReason != "" {
		line += " - usually " + s.CommonReason.Label()
	}
	return line
}

// SummarizeMisses groups Missed entries by medicine name. Groups and the
// reasons inside them are ordered by timestamp, oldest first.
func SummarizeMisses(logs []LogEntry) []MissSummary {
	missed := Missed(logs)
	sort.SliceStable(missed, func(i, j int) bool {
		return missed[i].Timestamp.Before(missed[j].Timestamp)
	})

	index := make(map[string]int)
	var groups []MissSummary
	reasons := make(map[string][]MissReason)

	for _, e := range missed {
		i, ok := index[e.MedicineName]
		if !ok {
			i = len(groups)
			index[e.MedicineName] = i
			groups = append(groups, MissSummary{MedicineName: e.MedicineName, Timing: e.Timing})
		}
		groups[i].Count++
		if e.MissReason != "" {
			reasons[e.MedicineName] = append(reasons[e.MedicineName], e.MissReason)
		}
	}

	for i := range groups {
		groups[i].CommonReason = MostCommonReason(reasons[groups[i].MedicineName])
	}
	return groups
}

// MostCommonReason picks the reason with the highest count. On a tie the
// reason that appeared first in reasons wins.
func MostCommonReason(reasons []MissReason) MissReason {
	counts := make(map[MissReason]int, len(reasons))
	var order []MissReason
	for _, r := range reasons {
		if counts[r] == 0 {
			order = append(order, r)
		}
		counts[r]++
	}

	var best MissReason
	bestCount := 0
	for _, r := range order {
		if counts[r] > bestCount {
			best, bestCount = r, counts[r]
		}
	}
	return best
}

package engine

import (
	apperrors "github.com/gmsas95/medremind/internal/errors"
	"github.com/gmsas95/medremind/internal/medication"
)

// MissedCount counts Missed entries for a catalog medicine
func (e *Engine) MissedCount(medicineID string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.medicines.Get(medicineID); !ok {
		return 0, apperrors.NotFound("medicine", medicineID)
	}
	return medication.MissedCount(e.logs, medicineID), nil
}

// MissedHistory returns Missed entries, newest first
func (e *Engine) MissedHistory() []medication.LogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return medication.History(medication.Missed(e.logs))
}

// Overview grades each medicine by its miss count
func (e *Engine) Overview() []medication.MedicineAdherence {
	e.mu.Lock()
	defer e.mu.Unlock()
	return medication.Overview(e.medicineSliceLocked(), e.logs, e.threshold)
}

// Summary groups misses by medicine name for the caregiver report
func (e *Engine) Summary() []medication.MissSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return medication.SummarizeMisses(e.logs)
}

// AdherenceRate returns the percentage of resolved doses that were taken
func (e *Engine) AdherenceRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return medication.AdherenceRate(e.logs)
}

// Report bundles the adherence view
type Report struct {
	GeneratedAt string                         `json:"generated_at"`
	Rate        float64                        `json:"adherence_rate"`
	Medicines   []medication.MedicineAdherence `json:"medicines"`
	Misses      []medication.MissSummary       `json:"misses"`
	Alert       medication.CaregiverAlert      `json:"alert"`
}

// BuildReport snapshots every aggregate under one lock
func (e *Engine) BuildReport() Report {
	now := e.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	return Report{
		GeneratedAt: now.Format("2006-01-02 15:04"),
		Rate:        medication.AdherenceRate(e.logs),
		Medicines:   medication.Overview(e.medicineSliceLocked(), e.logs, e.threshold),
		Misses:      medication.SummarizeMisses(e.logs),
		Alert:       e.alert,
	}
}

package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gmsas95/medremind/internal/medication"
)

// MedicineRecord is the catalog row. The recurrence rule is stored as JSON
// text since its shape depends on the frequency.
type MedicineRecord struct {
	ID             string     `gorm:"primaryKey" json:"id"`
	Name           string     `json:"name"`
	Dosage         string     `json:"dosage"`
	Timing         string     `json:"timing"`
	RecurrenceJSON string     `gorm:"type:text" json:"recurrence"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName overrides the table name for MedicineRecord
func (MedicineRecord) TableName() string {
	return "medicines"
}

// LogRecord is one dose log row. (medicine_id, day_key) is unique.
type LogRecord struct {
	ID           string     `gorm:"primaryKey" json:"id"`
	MedicineID   string     `gorm:"uniqueIndex:idx_medicine_day;not null" json:"medicine_id"`
	DayKey       string     `gorm:"uniqueIndex:idx_medicine_day;not null" json:"day_key"`
	MedicineName string     `json:"medicine_name"`
	Dosage       string     `json:"dosage"`
	Timing       string     `json:"timing"`
	Message      string     `json:"message"`
	Status       string     `gorm:"index" json:"status"`
	MissReason   string     `json:"miss_reason"`
	Timestamp    time.Time  `gorm:"index" json:"timestamp"`
	SnoozeUntil  *time.Time `json:"snooze_until"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName overrides the table name for LogRecord
func (LogRecord) TableName() string {
	return "dose_logs"
}

func medicineRecord(m medication.Medicine) (*MedicineRecord, error) {
	rec, err := json.Marshal(m.Recurrence)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recurrence: %w", err)
	}
	return &MedicineRecord{
		ID:             m.ID,
		Name:           m.Name,
		Dosage:         m.Dosage,
		Timing:         string(m.Timing),
		RecurrenceJSON: string(rec),
		StartDate:      m.StartDate,
		EndDate:        m.EndDate,
		CreatedAt:      m.CreatedAt,
	}, nil
}

// Medicine converts the row back into the domain type
func (r *MedicineRecord) Medicine() (medication.Medicine, error) {
	var rec medication.Recurrence
	if r.RecurrenceJSON != "" {
		if err := json.Unmarshal([]byte(r.RecurrenceJSON), &rec); err != nil {
			return medication.Medicine{}, fmt.Errorf("medicine %s: failed to decode recurrence: %w", r.ID, err)
		}
	}
	return medication.Medicine{
		ID:         r.ID,
		Name:       r.Name,
		Dosage:     r.Dosage,
		Timing:     medication.Timing(r.Timing),
		Recurrence: rec,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		CreatedAt:  r.CreatedAt,
	}, nil
}

func logRecord(e medication.LogEntry) *LogRecord {
	return &LogRecord{
		ID:           e.ID,
		MedicineID:   e.MedicineID,
		DayKey:       e.DayKey,
		MedicineName: e.MedicineName,
		Dosage:       e.Dosage,
		Timing:       string(e.Timing),
		Message:      e.Message,
		Status:       string(e.Status),
		MissReason:   string(e.MissReason),
		Timestamp:    e.Timestamp,
		SnoozeUntil:  e.SnoozeUntil,
	}
}

// LogEntry converts the row back into the domain type
func (r *LogRecord) LogEntry() medication.LogEntry {
	return medication.LogEntry{
		ID:           r.ID,
		MedicineID:   r.MedicineID,
		MedicineName: r.MedicineName,
		Dosage:       r.Dosage,
		Timing:       medication.Timing(r.Timing),
		Message:      r.Message,
		Status:       medication.Status(r.Status),
		MissReason:   medication.MissReason(r.MissReason),
		Timestamp:    r.Timestamp,
		DayKey:       r.DayKey,
		SnoozeUntil:  r.SnoozeUntil,
	}
}

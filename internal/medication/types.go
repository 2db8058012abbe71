package medication

import (
	"fmt"
	"time"
)

// Timing is the meal-relative slot a dose belongs to
type Timing string

const (
	BeforeBreakfast Timing = "before-breakfast"
	AfterBreakfast  Timing = "after-breakfast"
	BeforeLunch     Timing = "before-lunch"
	AfterLunch      Timing = "after-lunch"
	BeforeDinner    Timing = "before-dinner"
	AfterDinner     Timing = "after-dinner"
	Bedtime         Timing = "bedtime"
)

var timingLabels = map[Timing]string{
	BeforeBreakfast: "before breakfast",
	AfterBreakfast:  "after breakfast",
	BeforeLunch:     "before lunch",
	AfterLunch:      "after lunch",
	BeforeDinner:    "before dinner",
	AfterDinner:     "after dinner",
	Bedtime:         "at bedtime",
}

// Timings lists every slot in display order
var Timings = []Timing{BeforeBreakfast, AfterBreakfast, BeforeLunch, AfterLunch, BeforeDinner, AfterDinner, Bedtime}

// Label returns the human phrase used in reminder messages
func (t Timing) Label() string {
	if label, ok := timingLabels[t]; ok {
		return label
	}
	return string(t)
}

func (t Timing) Valid() bool {
	_, ok := timingLabels[t]
	return ok
}

// Frequency selects the recurrence variant
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyAlternate Frequency = "alternate"
	FrequencySpecific  Frequency = "specific"
	FrequencyCustom    Frequency = "custom"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyAlternate, FrequencySpecific, FrequencyCustom:
		return true
	}
	return false
}

// Weekday counts from Monday=0 to Sunday=6
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (d Weekday) String() string {
	if d.Valid() {
		return dayNames[d]
	}
	return fmt.Sprintf("Weekday(%d)", int(d))
}

func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// WeekdayOf converts Go's Sunday-first weekday into the Monday-first numbering
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// DayOverride replaces the default timing and dosage on one weekday
type DayOverride struct {
	Timing Timing `json:"timing" yaml:"timing"`
	Dosage string `json:"dosage" yaml:"dosage"`
}

// Recurrence decides which calendar days a medicine is due
type Recurrence struct {
	Frequency    Frequency               `json:"frequency" yaml:"frequency"`
	SpecificDays []Weekday               `json:"specific_days,omitempty" yaml:"specific_days,omitempty"`
	Custom       map[Weekday]DayOverride `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// Daily, Alternate, OnDays and CustomDays build recurrence rules.
func Daily() Recurrence     { return Recurrence{Frequency: FrequencyDaily} }
func Alternate() Recurrence { return Recurrence{Frequency: FrequencyAlternate} }

func OnDays(days ...Weekday) Recurrence {
	return Recurrence{Frequency: FrequencySpecific, SpecificDays: days}
}

func CustomDays(overrides map[Weekday]DayOverride) Recurrence {
	return Recurrence{Frequency: FrequencyCustom, Custom: overrides}
}

// Medicine is a catalog entry
type Medicine struct {
	ID         string     `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	Dosage     string     `json:"dosage" yaml:"dosage"`
	Timing     Timing     `json:"timing" yaml:"timing"`
	Recurrence Recurrence `json:"recurrence" yaml:"recurrence"`
	StartDate  *time.Time `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at" yaml:"created_at"`
}

// Fields are the user-editable parts of a Medicine
type Fields struct {
	Name       string     `json:"name" yaml:"name"`
	Dosage     string     `json:"dosage" yaml:"dosage"`
	Timing     Timing     `json:"timing" yaml:"timing"`
	Recurrence Recurrence `json:"recurrence" yaml:"recurrence"`
	StartDate  *time.Time `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"`
}

// Apply copies the editable fields onto m, leaving ID and CreatedAt alone
func (f Fields) Apply(m *Medicine) {
	m.Name = f.Name
	m.Dosage = f.Dosage
	m.Timing = f.Timing
	m.Recurrence = f.Recurrence
	m.StartDate = f.StartDate
	m.EndDate = f.EndDate
}

// FieldsOf extracts the editable fields of m
func FieldsOf(m Medicine) Fields {
	return Fields{
		Name:       m.Name,
		Dosage:     m.Dosage,
		Timing:     m.Timing,
		Recurrence: m.Recurrence,
		StartDate:  m.StartDate,
		EndDate:    m.EndDate,
	}
}

// Status of a log entry
type Status string

const (
	StatusPending Status = "pending"
	StatusTaken   Status = "taken"
	StatusMissed  Status = "missed"
	StatusSnoozed Status = "snoozed"
)

// Terminal reports whether no further transition is allowed
func (s Status) Terminal() bool {
	return s == StatusTaken || s == StatusMissed
}

// MissReason explains a missed dose
type MissReason string

const (
	ReasonForgot  MissReason = "forgot"
	ReasonAsleep  MissReason = "asleep"
	ReasonOutside MissReason = "outside"
	ReasonLater   MissReason = "later"
)

var reasonLabels = map[MissReason]string{
	ReasonForgot:  "forgot",
	ReasonAsleep:  "was asleep",
	ReasonOutside: "was outside",
	ReasonLater:   "will take later",
}

func (r MissReason) Valid() bool {
	_, ok := reasonLabels[r]
	return ok
}

func (r MissReason) Label() string {
	if label, ok := reasonLabels[r]; ok {
		return label
	}
	return string(r)
}

// LogEntry is one materialized dose for a medicine on a calendar day.
// Name, dosage and timing are snapshots taken when the entry was created.
type LogEntry struct {
	ID           string     `json:"id" yaml:"id"`
	MedicineID   string     `json:"medicine_id" yaml:"medicine_id"`
	MedicineName string     `json:"medicine_name" yaml:"medicine_name"`
	Dosage       string     `json:"dosage" yaml:"dosage"`
	Timing       Timing     `json:"timing" yaml:"timing"`
	Message      string     `json:"message" yaml:"message"`
	Status       Status     `json:"status" yaml:"status"`
	MissReason   MissReason `json:"miss_reason,omitempty" yaml:"miss_reason,omitempty"`
	Timestamp    time.Time  `json:"timestamp" yaml:"timestamp"`
	DayKey       string     `json:"day_key" yaml:"day_key"`
	SnoozeUntil  *time.Time `json:"snooze_until,omitempty" yaml:"snooze_until,omitempty"`
}

// CaregiverAlert is the dismissible escalation flag
type CaregiverAlert struct {
	Visible      bool   `json:"visible" yaml:"visible"`
	MedicineName string `json:"medicine_name" yaml:"medicine_name"`
}

// DayKeyLayout formats calendar days for uniqueness checks
const DayKeyLayout = "2006-01-02"

// DayKey returns the calendar day of t in t's own location
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// ParseDay parses a YYYY-MM-DD string into midnight of that day in loc
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayKeyLayout, s, loc)
}

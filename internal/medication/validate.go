package medication

import (
	"strings"

	apperrors "github.com/gmsas95/medremind/internal/errors"
	"github.com/gmsas95/medremind/internal/security"
)

// Validate checks a medicine definition before it is written. A rejected
// definition is never persisted.
func (f Fields) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return apperrors.Invalid("medicine name is required")
	}
	if strings.TrimSpace(f.Dosage) == "" {
		return apperrors.Invalid("dosage is required")
	}
	if err := security.ValidateText(f.Name); err != nil {
		return apperrors.Invalid("medicine name: %v", err)
	}
	if err := security.ValidateText(f.Dosage); err != nil {
		return apperrors.Invalid("dosage: %v", err)
	}
	if !f.Timing.Valid() {
		return apperrors.Invalid("unknown timing %q", f.Timing)
	}
	if f.StartDate != nil && f.EndDate != nil && civil(*f.EndDate).Before(civil(*f.StartDate)) {
		return apperrors.Invalid("end date %s is before start date %s", DayKey(*f.EndDate), DayKey(*f.StartDate))
	}
	return f.Recurrence.Validate()
}

// Validate checks the variant-specific invariants of a recurrence rule
func (r Recurrence) Validate() error {
	switch r.Frequency {
	case FrequencyDaily, FrequencyAlternate:
		return nil
	case FrequencySpecific:
		if len(r.SpecificDays) == 0 {
			return apperrors.Invalid("specific-days recurrence needs at least one weekday")
		}
		for _, d := range r.SpecificDays {
			if !d.Valid() {
				return apperrors.Invalid("weekday %d out of range", int(d))
			}
		}
		return nil
	case FrequencyCustom:
		if len(r.Custom) == 0 {
			return apperrors.Invalid("custom recurrence needs at least one weekday override")
		}
		for d, o := range r.Custom {
			if !d.Valid() {
				return apperrors.Invalid("weekday %d out of range", int(d))
			}
			if o.Timing != "" && !o.Timing.Valid() {
				return apperrors.Invalid("unknown timing %q for %s", o.Timing, d)
			}
			if err := security.ValidateText(o.Dosage); err != nil {
				return apperrors.Invalid("dosage for %s: %v", d, err)
			}
		}
		return nil
	}
	return apperrors.Invalid("unknown frequency %q", r.Frequency)
}

// Normalize drops fields that do not belong to the chosen variant and
// de-duplicates the weekday set.
func (r Recurrence) Normalize() Recurrence {
	out := Recurrence{Frequency: r.Frequency}
	switch r.Frequency {
	case FrequencySpecific:
		seen := make(map[Weekday]bool, len(r.SpecificDays))
		for _, d := range r.SpecificDays {
			if !seen[d] {
				seen[d] = true
				out.SpecificDays = append(out.SpecificDays, d)
			}
		}
	case FrequencyCustom:
		out.Custom = make(map[Weekday]DayOverride, len(r.Custom))
		for d, o := range r.Custom {
			out.Custom[d] = o
		}
	}
	return out
}

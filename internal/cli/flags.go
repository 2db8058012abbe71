package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/gmsas95/medremind/internal/medication"
	"github.com/spf13/cobra"
)

var weekdayAbbrev = map[string]medication.Weekday{
	"mon": medication.Monday,
	"tue": medication.Tuesday,
	"wed": medication.Wednesday,
	"thu": medication.Thursday,
	"fri": medication.Friday,
	"sat": medication.Saturday,
	"sun": medication.Sunday,
}

// parseWeekday accepts three-letter or full English day names
func parseWeekday(s string) (medication.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if len(key) > 3 {
		key = key[:3]
	}
	d, ok := weekdayAbbrev[key]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
	return d, nil
}

func parseWeekdays(list []string) ([]medication.Weekday, error) {
	days := make([]medication.Weekday, 0, len(list))
	for _, s := range list {
		d, err := parseWeekday(s)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}

// parseOverrides reads "day=timing:dosage" pairs. Either half after the
// equals sign may be blank to keep the medicine's default.
func parseOverrides(list []string) (map[medication.Weekday]medication.DayOverride, error) {
	out := make(map[medication.Weekday]medication.DayOverride, len(list))
	for _, item := range list {
		day, rest, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("override %q must look like day=timing:dosage", item)
		}
		d, err := parseWeekday(day)
		if err != nil {
			return nil, err
		}
		timing, dosage, _ := strings.Cut(rest, ":")
		out[d] = medication.DayOverride{
			Timing: medication.Timing(strings.TrimSpace(timing)),
			Dosage: strings.TrimSpace(dosage),
		}
	}
	return out, nil
}

type medicineFlags struct {
	name      string
	dosage    string
	timing    string
	frequency string
	days      []string
	overrides []string
	start     string
	end       string
}

func (f *medicineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Medicine name")
	cmd.Flags().StringVar(&f.dosage, "dosage", "", "Dosage, e.g. \"1 tablet\"")
	cmd.Flags().StringVar(&f.timing, "timing", string(medication.AfterBreakfast), "Meal-relative timing")
	cmd.Flags().StringVar(&f.frequency, "frequency", string(medication.FrequencyDaily), "daily, alternate, specific or custom")
	cmd.Flags().StringSliceVar(&f.days, "days", nil, "Weekdays for specific frequency, e.g. mon,wed,fri")
	cmd.Flags().StringSliceVar(&f.overrides, "override", nil, "Custom day override day=timing:dosage (repeatable)")
	cmd.Flags().StringVar(&f.start, "start", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "Last day (YYYY-MM-DD)")
}

// fields builds medicine fields from the flags. Flags the user did not set
// fall back to base, which lets edit change one attribute at a time.
func (f *medicineFlags) fields(cmd *cobra.Command, base medication.Fields, loc *time.Location) (medication.Fields, error) {
	out := base
	changed := cmd.Flags().Changed

	if changed("name") {
		out.Name = f.name
	}
	if changed("dosage") {
		out.Dosage = f.dosage
	}
	if changed("timing") || out.Timing == "" {
		out.Timing = medication.Timing(f.timing)
	}

	if changed("frequency") || changed("days") || changed("override") || out.Recurrence.Frequency == "" {
		rec := medication.Recurrence{Frequency: medication.Frequency(f.frequency)}
		if !changed("frequency") && out.Recurrence.Frequency != "" {
			rec = out.Recurrence
		}
		days, err := parseWeekdays(f.days)
		if err != nil {
			return out, err
		}
		if len(days) > 0 {
			rec.SpecificDays = days
		}
		overrides, err := parseOverrides(f.overrides)
		if err != nil {
			return out, err
		}
		if len(overrides) > 0 {
			rec.Custom = overrides
		}
		out.Recurrence = rec
	}

	if changed("start") {
		d, err := optionalDay(f.start, loc)
		if err != nil {
			return out, err
		}
		out.StartDate = d
	}
	if changed("end") {
		d, err := optionalDay(f.end, loc)
		if err != nil {
			return out, err
		}
		out.EndDate = d
	}
	return out, nil
}

func optionalDay(s string, loc *time.Location) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := medication.ParseDay(s, loc)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

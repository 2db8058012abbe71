package api

import (
	"time"

	apperrors "github.com/gmsas95/medremind/internal/errors"
	"github.com/gmsas95/medremind/internal/medication"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MedicineRequest is the create/update body. Dates are YYYY-MM-DD in the
// engine timezone.
type MedicineRequest struct {
	Name       string                `json:"name" validate:"required,max=200"`
	Dosage     string                `json:"dosage" validate:"required,max=100"`
	Timing     medication.Timing     `json:"timing" validate:"required"`
	Recurrence medication.Recurrence `json:"recurrence"`
	StartDate  string                `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate    string                `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// Fields converts the request into engine input
func (r MedicineRequest) Fields(loc *time.Location) (medication.Fields, error) {
	f := medication.Fields{
		Name:       r.Name,
		Dosage:     r.Dosage,
		Timing:     r.Timing,
		Recurrence: r.Recurrence,
	}
	if f.Recurrence.Frequency == "" {
		f.Recurrence.Frequency = medication.FrequencyDaily
	}

	var err error
	if f.StartDate, err = parseOptionalDay(r.StartDate, loc); err != nil {
		return f, err
	}
	if f.EndDate, err = parseOptionalDay(r.EndDate, loc); err != nil {
		return f, err
	}
	return f, nil
}

func parseOptionalDay(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := medication.ParseDay(s, loc)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrBadRequest.Code, "invalid date "+s, err)
	}
	return &t, nil
}

type MissRequest struct {
	Reason medication.MissReason `json:"reason" validate:"omitempty,oneof=forgot asleep outside later"`
}

type MissedCountResponse struct {
	MedicineID  string `json:"medicine_id"`
	MissedCount int    `json:"missed_count"`
}

type SummaryResponse struct {
	Lines  []string                 `json:"lines"`
	Misses []medication.MissSummary `json:"misses"`
}

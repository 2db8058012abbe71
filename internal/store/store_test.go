package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gmsas95/medremind/internal/config"
	apperrors "github.com/gmsas95/medremind/internal/errors"
	"github.com/gmsas95/medremind/internal/medication"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Storage: config.StorageConfig{
			DataDir:    dir,
			SQLitePath: filepath.Join(dir, "test.db"),
			BadgerPath: filepath.Join(dir, "badger"),
		},
	}
	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var created = time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)

func aspirin() medication.Medicine {
	return medication.Medicine{
		ID:     "med-1",
		Name:   "Aspirin",
		Dosage: "100mg",
		Timing: medication.AfterBreakfast,
		Recurrence: medication.CustomDays(map[medication.Weekday]medication.DayOverride{
			medication.Saturday: {Timing: medication.Bedtime, Dosage: "50mg"},
		}),
		CreatedAt: created,
	}
}

func entry(id, medID, day string, status medication.Status) medication.LogEntry {
	return medication.LogEntry{
		ID:           id,
		MedicineID:   medID,
		MedicineName: "Aspirin",
		Dosage:       "100mg",
		Timing:       medication.AfterBreakfast,
		Message:      "Please take Aspirin (100mg) after breakfast",
		Status:       status,
		Timestamp:    created,
		DayKey:       day,
	}
}

func TestMedicineRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := aspirin()
	end := created.AddDate(0, 1, 0)
	m.EndDate = &end
	require.NoError(t, s.SaveMedicine(ctx, m))

	second := medication.Medicine{ID: "med-2", Name: "Vitamin D", Dosage: "1 tab", Timing: medication.Bedtime,
		Recurrence: medication.Daily(), CreatedAt: created.Add(time.Minute)}
	require.NoError(t, s.SaveMedicine(ctx, second))

	meds, err := s.LoadMedicines(ctx)
	require.NoError(t, err)
	require.Len(t, meds, 2)
	assert.Equal(t, "med-1", meds[0].ID)
	assert.Equal(t, "med-2", meds[1].ID)
	assert.Equal(t, medication.FrequencyCustom, meds[0].Recurrence.Frequency)
	assert.Equal(t, "50mg", meds[0].Recurrence.Custom[medication.Saturday].Dosage)
	require.NotNil(t, meds[0].EndDate)
	assert.True(t, end.Equal(*meds[0].EndDate))
	assert.True(t, created.Equal(meds[0].CreatedAt))

	m.Name = "Aspirin EC"
	require.NoError(t, s.SaveMedicine(ctx, m))
	meds, err = s.LoadMedicines(ctx)
	require.NoError(t, err)
	require.Len(t, meds, 2)
	assert.Equal(t, "Aspirin EC", meds[0].Name)
}

func TestSaveLogs_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveMedicine(ctx, aspirin()))
	e := entry("log-1", "med-1", "2026-10-12", medication.StatusPending)
	require.NoError(t, s.SaveLogs(ctx, e))

	e.Status = medication.StatusMissed
	e.MissReason = medication.ReasonAsleep
	require.NoError(t, s.SaveLogs(ctx, e))
	require.NoError(t, s.SaveLogs(ctx))

	logs, err := s.LoadLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, medication.StatusMissed, logs[0].Status)
	assert.Equal(t, medication.ReasonAsleep, logs[0].MissReason)
	assert.Equal(t, "2026-10-12", logs[0].DayKey)
}

func TestSaveLogs_UniquePerMedicineDay(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveLogs(ctx, entry("log-1", "med-1", "2026-10-12", medication.StatusPending)))
	err := s.SaveLogs(ctx, entry("log-2", "med-1", "2026-10-12", medication.StatusPending))
	assert.Error(t, err)
}

func TestDeleteMedicine_CascadesLogs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveMedicine(ctx, aspirin()))
	require.NoError(t, s.SaveLogs(ctx,
		entry("log-1", "med-1", "2026-10-12", medication.StatusTaken),
		entry("log-2", "med-1", "2026-10-13", medication.StatusPending),
		entry("log-3", "med-2", "2026-10-13", medication.StatusPending),
	))

	require.NoError(t, s.DeleteMedicine(ctx, "med-1"))

	meds, err := s.LoadMedicines(ctx)
	require.NoError(t, err)
	assert.Empty(t, meds)

	logs, err := s.LoadLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "log-3", logs[0].ID)
}

func TestAlertState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alert, err := s.LoadAlert(ctx)
	require.NoError(t, err)
	assert.False(t, alert.Visible)

	require.NoError(t, s.SaveAlert(ctx, medication.CaregiverAlert{Visible: true, MedicineName: "Aspirin"}))
	alert, err = s.LoadAlert(ctx)
	require.NoError(t, err)
	assert.True(t, alert.Visible)
	assert.Equal(t, "Aspirin", alert.MedicineName)
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetSession("tok", []byte("user@example.com"), time.Hour))
	val, err := s.GetSession("tok")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", string(val))

	require.NoError(t, s.DeleteSession("tok"))
	_, err = s.GetSession("tok")
	assert.Equal(t, apperrors.ErrNotFound.Code, apperrors.GetCode(err))
}

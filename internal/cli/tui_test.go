package cli

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gmsas95/medremind/internal/engine"
	"github.com/gmsas95/medremind/internal/medication"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTUIEngine(t *testing.T) *engine.Engine {
	t.Helper()
	now := time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC)
	eng := engine.New(zap.NewNop(),
		engine.WithClock(func() time.Time { return now }),
		engine.WithLocation(time.UTC),
	)
	t.Cleanup(func() { eng.Close() })

	for _, name := range []string{"Aspirin", "Iron"} {
		_, err := eng.CreateMedicine(medication.Fields{
			Name:       name,
			Dosage:     "1 tablet",
			Timing:     medication.AfterBreakfast,
			Recurrence: medication.Daily(),
		})
		require.NoError(t, err)
	}
	return eng
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestReminderModel_TakeAndNavigate(t *testing.T) {
	eng := newTUIEngine(t)
	m := newReminderModel(eng)
	defer m.close()

	require.Len(t, m.entries, 2)
	assert.Contains(t, m.View(), "Please take Aspirin (1 tablet) after breakfast")

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)

	m.Update(runes("t"))
	require.Len(t, m.entries, 1)
	assert.Equal(t, "Aspirin", m.entries[0].MedicineName)
	assert.Equal(t, 0, m.cursor)
	assert.Contains(t, m.status, "Iron: taken")

	m.Update(runes("a"))
	assert.Len(t, m.entries, 2)
}

func TestReminderModel_MissWithReason(t *testing.T) {
	eng := newTUIEngine(t)
	m := newReminderModel(eng)
	defer m.close()

	m.Update(runes("m"))
	assert.True(t, m.choosing)
	assert.Contains(t, m.View(), "Why was it missed?")

	m.Update(runes("9"))
	assert.True(t, m.choosing)

	m.Update(runes("3"))
	assert.False(t, m.choosing)

	missed := eng.MissedHistory()
	require.Len(t, missed, 1)
	assert.Equal(t, medication.ReasonOutside, missed[0].MissReason)
}

func TestReminderModel_MissCancel(t *testing.T) {
	eng := newTUIEngine(t)
	m := newReminderModel(eng)
	defer m.close()

	m.Update(runes("m"))
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.choosing)
	assert.Empty(t, eng.MissedHistory())
}

func TestReminderModel_SnoozeAndAlert(t *testing.T) {
	eng := newTUIEngine(t)
	eng.SetMissThreshold(1)
	m := newReminderModel(eng)
	defer m.close()

	m.Update(runes("s"))
	assert.Contains(t, m.status, "snoozed")

	m.Update(runes("a"))
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(runes("m"))
	m.Update(runes("1"))
	assert.True(t, m.alert.Visible)
	assert.Contains(t, m.View(), "Caregiver alert: Iron")

	m.Update(runes("d"))
	assert.False(t, m.alert.Visible)
}

func TestReminderModel_Quit(t *testing.T) {
	m := newReminderModel(newTUIEngine(t))
	defer m.close()

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

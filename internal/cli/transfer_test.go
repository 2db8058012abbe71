package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/gmsas95/medremind/internal/medication"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRoundTrip(t *testing.T) {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	meds := []medication.Medicine{
		{
			ID:         "m1",
			Name:       "Aspirin",
			Dosage:     "1 tablet",
			Timing:     medication.AfterBreakfast,
			Recurrence: medication.Daily(),
			StartDate:  &start,
		},
		{
			ID:     "m2",
			Name:   "Iron",
			Dosage: "1 capsule",
			Timing: medication.AfterLunch,
			Recurrence: medication.CustomDays(map[medication.Weekday]medication.DayOverride{
				medication.Sunday: {Timing: medication.Bedtime},
			}),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCatalog(&buf, meds))
	assert.NotContains(t, buf.String(), "m1")

	fields, err := ReadCatalog(&buf)
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, "Aspirin", fields[0].Name)
	require.NotNil(t, fields[0].StartDate)
	assert.True(t, start.Equal(*fields[0].StartDate))
	assert.Equal(t, medication.Bedtime, fields[1].Recurrence.Custom[medication.Sunday].Timing)
}

func TestReadCatalog_RejectsInvalidEntry(t *testing.T) {
	doc := `
version: 1
medicines:
  - name: Aspirin
    dosage: 1 tablet
    timing: after-breakfast
    recurrence:
      frequency: daily
  - name: Broken
    dosage: 1 tablet
    timing: after-breakfast
    recurrence:
      frequency: specific
`
	_, err := ReadCatalog(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "medicine 2 (Broken)")
}

func TestReadCatalog_UnknownField(t *testing.T) {
	_, err := ReadCatalog(strings.NewReader("version: 1\npills: []\n"))
	assert.Error(t, err)
}

func TestReadCatalog_FutureVersion(t *testing.T) {
	_, err := ReadCatalog(strings.NewReader("version: 9\nmedicines: []\n"))
	assert.Error(t, err)
}

func TestReadCatalog_Empty(t *testing.T) {
	fields, err := ReadCatalog(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, fields)
}

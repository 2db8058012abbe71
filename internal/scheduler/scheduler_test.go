package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var base = time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC)

func TestRunDue_Order(t *testing.T) {
	s := New(zap.NewNop(), func() time.Time { return base })

	var order []string
	record := func(name string) func(time.Time) {
		return func(time.Time) { order = append(order, name) }
	}

	s.Schedule("c", base.Add(3*time.Minute), record("c"))
	s.Schedule("a", base.Add(1*time.Minute), record("a"))
	s.Schedule("b1", base.Add(2*time.Minute), record("b1"))
	s.Schedule("b2", base.Add(2*time.Minute), record("b2"))
	s.Schedule("later", base.Add(time.Hour), record("later"))

	ran := s.RunDue(base.Add(5 * time.Minute))
	assert.Equal(t, 4, ran)
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, order)
	assert.Equal(t, 1, s.Len())
}

func TestScheduleReplacesSameKey(t *testing.T) {
	s := New(zap.NewNop(), nil)

	calls := 0
	s.Schedule("snooze:1", base.Add(time.Minute), func(time.Time) { calls += 10 })
	s.Schedule("snooze:1", base.Add(2*time.Minute), func(time.Time) { calls++ })

	assert.Equal(t, 1, s.Len())
	due, ok := s.DueAt("snooze:1")
	require.True(t, ok)
	assert.Equal(t, base.Add(2*time.Minute), due)

	s.RunDue(base.Add(time.Hour))
	assert.Equal(t, 1, calls)
}

func TestCancel(t *testing.T) {
	s := New(zap.NewNop(), nil)

	fired := false
	s.Schedule("snooze:1", base, func(time.Time) { fired = true })

	assert.True(t, s.Cancel("snooze:1"))
	assert.False(t, s.Cancel("snooze:1"))
	assert.Equal(t, 0, s.RunDue(base.Add(time.Hour)))
	assert.False(t, fired)

	_, ok := s.DueAt("snooze:1")
	assert.False(t, ok)
}

func TestEvery_Requeues(t *testing.T) {
	s := New(zap.NewNop(), func() time.Time { return base })

	var runs []time.Time
	require.NoError(t, s.Every("refresh", "@every 1m", func(now time.Time) { runs = append(runs, now) }))

	due, ok := s.DueAt("refresh")
	require.True(t, ok)
	assert.Equal(t, base.Add(time.Minute), due)

	s.RunDue(base.Add(time.Minute))
	s.RunDue(base.Add(2 * time.Minute))
	assert.Len(t, runs, 2)

	due, _ = s.DueAt("refresh")
	assert.Equal(t, base.Add(3*time.Minute), due)
}

func TestEvery_InvalidSpec(t *testing.T) {
	s := New(zap.NewNop(), nil)
	assert.Error(t, s.Every("refresh", "not a schedule", func(time.Time) {}))
	assert.Equal(t, 0, s.Len())
}

func TestPanickingJobDoesNotStopQueue(t *testing.T) {
	s := New(zap.NewNop(), nil)

	ok := false
	s.Schedule("boom", base, func(time.Time) { panic("boom") })
	s.Schedule("after", base.Add(time.Second), func(time.Time) { ok = true })

	assert.Equal(t, 2, s.RunDue(base.Add(time.Minute)))
	assert.True(t, ok)
}

func TestStartStop(t *testing.T) {
	s := New(zap.NewNop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start(ctx))

	var mu sync.Mutex
	fired := false
	s.Schedule("soon", time.Now().Add(20*time.Millisecond), func(time.Time) {
		mu.Lock()
		fired = true
		mu.Unlock()
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fired
	}, 2*time.Second, 10*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
}
